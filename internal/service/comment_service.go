package service

import (
	"context"
	"time"

	"linkboard/internal/models"
	"linkboard/internal/pagination"
	"linkboard/internal/policy"
	"linkboard/internal/repository"
	"linkboard/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	communities *CommunityService
	policy      *policy.Policy
	now         func() time.Time
}

type CreateCommentInput struct {
	PostID          uint
	Body            string
	ParentCommentID *uint
}

type ListCommentsInput struct {
	PostID   uint
	ParentID *uint
	Page     pagination.Request
}

type UpdateCommentInput struct {
	CommentID uint
	Body      *string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	communities *CommunityService,
	p *policy.Policy,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		communities: communities,
		policy:      p,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CommentKey is the keyset ordering key of a comment.
func CommentKey(c *models.Comment) (int64, time.Time, uint) {
	return c.Score, c.CreatedAt, c.ID
}

// visiblePost loads a live post and checks actor may read its community.
func (s *CommentService) visiblePost(ctx context.Context, actor *models.User, postID uint) (*models.Post, *models.Community, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID(actor))
	if err != nil {
		return nil, nil, err
	}
	community, err := s.communities.GetCommunity(ctx, post.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.policy.RequireView(ctx, actor, community); err != nil {
		return nil, nil, err
	}
	return post, community, nil
}

func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, in CreateCommentInput) (*models.Comment, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	body, err := validation.CleanText("body", in.Body, validation.MaxCommentLength)
	if err != nil {
		return nil, invalidField("body", err)
	}

	post, community, err := s.visiblePost(ctx, actor, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequirePost(ctx, actor, community); err != nil {
		return nil, err
	}

	if in.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentCommentID, actor.ID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("parent comment does not exist").
					WithDetails(map[string]any{"field": "parent_comment_id"})
			}
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("parent comment belongs to another post").
				WithDetails(map[string]any{"field": "parent_comment_id"})
		}
	}

	comment := &models.Comment{
		PostID:          post.ID,
		AuthorUserID:    actor.ID,
		ParentCommentID: in.ParentCommentID,
		Body:            body,
		CreatedAt:       s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns one page of a post's live comments.
func (s *CommentService) ListComments(ctx context.Context, actor *models.User, in ListCommentsInput) (pagination.Page[*models.Comment], error) {
	post, _, err := s.visiblePost(ctx, actor, in.PostID)
	if err != nil {
		return pagination.Page[*models.Comment]{}, err
	}
	rows, err := s.commentRepo.ListByPost(ctx, post.ID, viewerID(actor),
		repository.CommentFilter{ParentID: in.ParentID}, in.Page)
	if err != nil {
		return pagination.Page[*models.Comment]{}, err
	}
	return pagination.Build(rows, in.Page, CommentKey), nil
}

// editable loads a live comment and checks actor may change it.
func (s *CommentService) editable(ctx context.Context, actor *models.User, id uint) (*models.Comment, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	comment, err := s.commentRepo.GetByID(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireEditOrDelete(ctx, actor, post.CommunityID, comment.AuthorUserID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actor *models.User, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.editable(ctx, actor, in.CommentID)
	if err != nil {
		return nil, err
	}
	if in.Body == nil {
		return comment, nil
	}
	body, err := validation.CleanText("body", *in.Body, validation.MaxCommentLength)
	if err != nil {
		return nil, invalidField("body", err)
	}
	if body == comment.Body {
		return comment, nil
	}

	if err := s.commentRepo.Update(ctx, comment.ID, map[string]any{
		"body":      body,
		"edited_at": s.now(),
	}); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID, actor.ID)
}

// DeleteComment soft-deletes a comment. Replies keep their parent reference.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, id uint) error {
	comment, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.commentRepo.SoftDelete(ctx, comment.ID)
}

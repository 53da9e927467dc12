package service

import (
	"context"

	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/policy"
	"linkboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type VoteService struct {
	voteRepo    repository.VoteRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	communities *CommunityService
	policy      *policy.Policy
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	communities *CommunityService,
	p *policy.Policy,
) *VoteService {
	return &VoteService{
		voteRepo:    voteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		communities: communities,
		policy:      p,
	}
}

// authorize checks the subject is live and that actor may read it. It
// returns the actor's current vote.
func (s *VoteService) authorize(ctx context.Context, actor *models.User, kind models.SubjectKind, id uint) (int, error) {
	var postID uint
	var myVote int
	switch kind {
	case models.SubjectPost:
		post, err := s.postRepo.GetByID(ctx, id, viewerID(actor))
		if err != nil {
			return 0, err
		}
		postID, myVote = post.ID, post.MyVote
	case models.SubjectComment:
		comment, err := s.commentRepo.GetByID(ctx, id, viewerID(actor))
		if err != nil {
			return 0, err
		}
		postID, myVote = comment.PostID, comment.MyVote
	default:
		return 0, models.NewValidationError("unknown vote subject")
	}

	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return 0, err
	}
	community, err := s.communities.GetCommunity(ctx, post.CommunityID)
	if err != nil {
		return 0, err
	}
	if err := s.policy.RequireView(ctx, actor, community); err != nil {
		return 0, err
	}
	return myVote, nil
}

// Cast records actor's vote. Repeating the same vote changes nothing.
func (s *VoteService) Cast(ctx context.Context, actor *models.User, kind models.SubjectKind, id uint, value int) (state *models.VoteState, err error) {
	span, ctx := observability.NewSpan(ctx, "VoteService.Cast",
		attribute.String("subject", string(kind)), attribute.Int("subject_id", int(id)))
	defer func() { span.End(err) }()

	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if !models.ValidVoteValue(value) {
		return nil, models.NewValidationError("value must be 1 or -1").
			WithDetails(map[string]any{"field": "value", "value": value})
	}
	if _, err := s.authorize(ctx, actor, kind, id); err != nil {
		return nil, err
	}
	if err := s.voteRepo.Cast(ctx, kind, id, actor.ID, value); err != nil {
		return nil, err
	}
	score, err := s.voteRepo.Score(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &models.VoteState{Subject: kind, SubjectID: id, UserID: actor.ID, Value: value, Score: score}, nil
}

// Clear removes actor's vote. Clearing when no vote exists succeeds.
func (s *VoteService) Clear(ctx context.Context, actor *models.User, kind models.SubjectKind, id uint) (state *models.VoteState, err error) {
	span, ctx := observability.NewSpan(ctx, "VoteService.Clear",
		attribute.String("subject", string(kind)), attribute.Int("subject_id", int(id)))
	defer func() { span.End(err) }()

	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if _, err := s.authorize(ctx, actor, kind, id); err != nil {
		return nil, err
	}
	if _, err := s.voteRepo.Clear(ctx, kind, id, actor.ID); err != nil {
		return nil, err
	}
	score, err := s.voteRepo.Score(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &models.VoteState{Subject: kind, SubjectID: id, UserID: actor.ID, Score: score}, nil
}

// Score returns the subject's score together with actor's vote, 0 for
// anonymous callers.
func (s *VoteService) Score(ctx context.Context, actor *models.User, kind models.SubjectKind, id uint) (*models.VoteState, error) {
	myVote, err := s.authorize(ctx, actor, kind, id)
	if err != nil {
		return nil, err
	}
	score, err := s.voteRepo.Score(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return &models.VoteState{Subject: kind, SubjectID: id, UserID: viewerID(actor), Value: myVote, Score: score}, nil
}

package repository

import (
	"context"
	"fmt"

	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/pagination"

	"gorm.io/gorm"
)

// CommentFilter narrows a comment listing. ParentID nil lists every comment
// on the post regardless of depth.
type CommentFilter struct {
	ParentID *uint
}

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// GetByID returns a live comment on a live post, with score and the
	// viewer's vote.
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error)
	// ListByPost returns up to req.Limit+1 live comments in keyset order.
	ListByPost(ctx context.Context, postID, viewerID uint, filter CommentFilter, req pagination.Request) ([]*models.Comment, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	SoftDelete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, logger: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return fmt.Errorf("create comment: %w", err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorUserID,
	})
	return nil
}

func (r *commentRepository) scored(ctx context.Context, viewerID uint) *gorm.DB {
	q := commentSubject.withScores(r.db.WithContext(ctx).Model(&models.Comment{}), viewerID)
	return q.Joins("JOIN posts ON posts.id = comments.post_id AND posts.deleted_at IS NULL")
}

func (r *commentRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Comment, error) {
	defer observability.TrackQuery("get", "comments")()

	var comment models.Comment
	if err := r.scored(ctx, viewerID).Where("comments.id = ?", id).Take(&comment).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID, viewerID uint, filter CommentFilter, req pagination.Request) ([]*models.Comment, error) {
	defer observability.TrackQuery("list", "comments")()

	q := r.scored(ctx, viewerID).Where("comments.post_id = ?", postID)
	if filter.ParentID != nil {
		q = q.Where("comments.parent_comment_id = ?", *filter.ParentID)
	}

	var comments []*models.Comment
	if err := commentSubject.keyset(q, req).Limit(pageSize(req)).Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	defer observability.TrackQuery("update", "comments")()

	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"comment_id": id, "fields": fieldNames(fields)})
	return nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "comments")()

	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"comment_id": id})
	return nil
}

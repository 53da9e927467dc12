package repository

import (
	"context"
	"fmt"
	"strings"

	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/pagination"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean no filter.
type PostFilter struct {
	CommunityID uint
	AuthorID    uint
	Query       string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID returns a live post in a live community, with score and the
	// viewer's vote. Visibility is left to the caller.
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	// List returns up to req.Limit+1 visible posts in keyset order.
	List(ctx context.Context, viewerID uint, filter PostFilter, req pagination.Request) ([]*models.Post, error)
	// GetBatch returns the visible live posts among ids, in input order.
	GetBatch(ctx context.Context, viewerID uint, ids []uint) ([]*models.Post, error)
	// Update writes fields to a live post. A missing or deleted post is NOT_FOUND.
	Update(ctx context.Context, id uint, fields map[string]any) error
	SoftDelete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, logger: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return fmt.Errorf("create post: %w", err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{
		"post_id":      post.ID,
		"community_id": post.CommunityID,
		"author_id":    post.AuthorUserID,
	})
	return nil
}

// live joins the post's community and drops posts whose community is gone.
func (r *postRepository) live(ctx context.Context, viewerID uint) *gorm.DB {
	q := postSubject.withScores(r.db.WithContext(ctx).Model(&models.Post{}), viewerID)
	return q.Joins("JOIN communities ON communities.id = posts.community_id AND communities.deleted_at IS NULL")
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()

	var post models.Post
	err := r.live(ctx, viewerID).Where("posts.id = ?", id).Take(&post).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) visible(ctx context.Context, viewerID uint) *gorm.DB {
	q := postSubject.withScores(r.db.WithContext(ctx).Model(&models.Post{}), viewerID)
	return visibleTo(q, "posts.community_id", viewerID)
}

func (r *postRepository) List(ctx context.Context, viewerID uint, filter PostFilter, req pagination.Request) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()

	q := r.visible(ctx, viewerID)
	if filter.CommunityID != 0 {
		q = q.Where("posts.community_id = ?", filter.CommunityID)
	}
	if filter.AuthorID != 0 {
		q = q.Where("posts.author_user_id = ?", filter.AuthorID)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(COALESCE(posts.body, '')) LIKE ? ESCAPE '!')", like, like)
	}

	var posts []*models.Post
	if err := postSubject.keyset(q, req).Limit(pageSize(req)).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) GetBatch(ctx context.Context, viewerID uint, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	defer observability.TrackQuery("batch", "posts")()

	var found []*models.Post
	if err := r.visible(ctx, viewerID).Where("posts.id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("batch posts: %w", err)
	}

	byID := make(map[uint]*models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	ordered := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	defer observability.TrackQuery("update", "posts")()

	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "update")
		return fmt.Errorf("update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"post_id": id, "fields": fieldNames(fields)})
	return nil
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()

	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		r.logger.LogError(ctx, res.Error, "delete")
		return fmt.Errorf("delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"post_id": id})
	return nil
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	return names
}

package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"linkboard/internal/cache"
	"linkboard/internal/middleware"
	"linkboard/internal/models"
	"linkboard/internal/observability"
	"linkboard/internal/pagination"
	"linkboard/internal/policy"
	"linkboard/internal/repository"
	"linkboard/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Page sizes when the client sends no limit.
const (
	DefaultPostLimit    = 20
	DefaultCommentLimit = 50
)

// MaxIdempotencyKeyLength bounds the Idempotency-Key header.
const MaxIdempotencyKeyLength = 255

// IdempotencyStore remembers keyed create requests.
type IdempotencyStore interface {
	Enabled() bool
	Begin(ctx context.Context, key string, fingerprint uint64) (*cache.IdempotencyRecord, bool, error)
	Complete(ctx context.Context, key string, fingerprint uint64, resourceID uint) error
	Release(ctx context.Context, key string) error
}

type PostService struct {
	postRepo    repository.PostRepository
	communities *CommunityService
	policy      *policy.Policy
	idempotency IdempotencyStore
	now         func() time.Time
}

type CreatePostInput struct {
	Community      string
	Title          string
	Body           *string
	ImageURL       *string
	IdempotencyKey string
}

type ListPostsInput struct {
	CommunityID uint
	AuthorID    uint
	Query       string
	Page        pagination.Request
}

type UpdatePostInput struct {
	PostID   uint
	Title    *string
	Body     *string
	ImageURL *string
}

func NewPostService(
	postRepo repository.PostRepository,
	communities *CommunityService,
	p *policy.Policy,
	idempotency IdempotencyStore,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		communities: communities,
		policy:      p,
		idempotency: idempotency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PostKey is the keyset ordering key of a post.
func PostKey(p *models.Post) (int64, time.Time, uint) {
	return p.Score, p.CreatedAt, p.ID
}

// ParsePageRequest validates raw query values into a page request.
func ParsePageRequest(limit, cursor, sort, order string, defLimit int, defOrder pagination.Order) (pagination.Request, error) {
	n, err := pagination.ParseLimit(limit, defLimit)
	if err != nil {
		return pagination.Request{}, err
	}
	s, err := pagination.ParseSort(sort, pagination.SortNew)
	if err != nil {
		return pagination.Request{}, err
	}
	o, err := pagination.ParseOrder(order, defOrder)
	if err != nil {
		return pagination.Request{}, err
	}
	after, err := pagination.DecodeCursor(cursor, s, o)
	if err != nil {
		return pagination.Request{}, err
	}
	return pagination.Request{Limit: n, Sort: s, Order: o, After: after}, nil
}

func cleanImageURL(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	if err := validation.ValidateImageURL(trimmed); err != nil {
		return nil, invalidField("image_url", err)
	}
	return &trimmed, nil
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return "\x01" + *s
}

// CreatePost submits a post. The returned flag is true when the result was
// replayed from an earlier request with the same Idempotency-Key.
func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in CreatePostInput) (post *models.Post, replayed bool, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer func() { span.End(err) }()

	if actor == nil {
		return nil, false, models.NewUnauthenticatedError("authentication required")
	}
	title, err := validation.CleanText("title", in.Title, validation.MaxTitleLength)
	if err != nil {
		return nil, false, invalidField("title", err)
	}
	body, err := validation.CleanOptionalText("body", in.Body, validation.MaxBodyLength)
	if err != nil {
		return nil, false, invalidField("body", err)
	}
	imageURL, err := cleanImageURL(in.ImageURL)
	if err != nil {
		return nil, false, err
	}
	if len(in.IdempotencyKey) > MaxIdempotencyKeyLength {
		return nil, false, models.NewValidationError("Idempotency-Key is too long").
			WithDetails(map[string]any{"field": "Idempotency-Key"})
	}

	community, err := s.communities.Resolve(ctx, in.Community)
	if err != nil {
		return nil, false, err
	}
	if err := s.policy.RequirePost(ctx, actor, community); err != nil {
		return nil, false, err
	}
	span.AddAttributes(attribute.Int("community_id", int(community.ID)))

	var key string
	var fingerprint uint64
	if in.IdempotencyKey != "" && s.idempotency != nil && s.idempotency.Enabled() {
		key = cache.IdempotencyKey("posts", actor.ID, in.IdempotencyKey)
		fingerprint = cache.Fingerprint(
			strconv.FormatUint(uint64(community.ID), 10), title, optionalString(body), optionalString(imageURL),
		)
		existing, claimed, err := s.idempotency.Begin(ctx, key, fingerprint)
		switch {
		case err != nil:
			middleware.Logger.WarnContext(ctx, "idempotency unavailable, creating without key",
				slog.String("error", err.Error()))
			key = ""
		case !claimed:
			return s.replay(ctx, actor, existing, fingerprint)
		}
	}

	post = &models.Post{
		CommunityID:  community.ID,
		AuthorUserID: actor.ID,
		Title:        title,
		Body:         body,
		ImageURL:     imageURL,
		CreatedAt:    s.now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				middleware.Logger.WarnContext(ctx, "failed to release idempotency key",
					slog.String("error", relErr.Error()))
			}
		}
		return nil, false, err
	}
	if key != "" {
		if err := s.idempotency.Complete(ctx, key, fingerprint, post.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to record idempotency key",
				slog.Uint64("post_id", uint64(post.ID)), slog.String("error", err.Error()))
		}
	}
	return post, false, nil
}

func (s *PostService) replay(ctx context.Context, actor *models.User, existing *cache.IdempotencyRecord, fingerprint uint64) (*models.Post, bool, error) {
	if existing.Fingerprint != fingerprint {
		return nil, false, models.NewConflictError("Idempotency-Key was already used with a different payload")
	}
	if existing.State != cache.IdempotencyComplete {
		return nil, false, models.NewConflictError("a request with this Idempotency-Key is still in progress")
	}
	post, err := s.postRepo.GetByID(ctx, existing.ResourceID, actor.ID)
	if err != nil {
		return nil, false, err
	}
	observability.IdempotentReplays.Inc()
	return post, true, nil
}

// GetPost returns a live post the actor may view. actor may be nil.
func (s *PostService) GetPost(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID(actor))
	if err != nil {
		return nil, err
	}
	community, err := s.communities.GetCommunity(ctx, post.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireView(ctx, actor, community); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns one page of visible posts. Filtering on a community the
// actor cannot see is Forbidden rather than an empty page.
func (s *PostService) ListPosts(ctx context.Context, actor *models.User, in ListPostsInput) (pagination.Page[*models.Post], error) {
	if in.CommunityID != 0 {
		community, err := s.communities.GetCommunity(ctx, in.CommunityID)
		if err != nil {
			return pagination.Page[*models.Post]{}, err
		}
		if err := s.policy.RequireView(ctx, actor, community); err != nil {
			return pagination.Page[*models.Post]{}, err
		}
	}

	rows, err := s.postRepo.List(ctx, viewerID(actor), repository.PostFilter{
		CommunityID: in.CommunityID,
		AuthorID:    in.AuthorID,
		Query:       strings.TrimSpace(in.Query),
	}, in.Page)
	if err != nil {
		return pagination.Page[*models.Post]{}, err
	}
	return pagination.Build(rows, in.Page, PostKey), nil
}

// BatchPosts returns the visible posts among ids in request order.
func (s *PostService) BatchPosts(ctx context.Context, actor *models.User, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 || len(ids) > repository.MaxBatchSize {
		return nil, models.NewValidationError("ids must contain between 1 and 100 entries").
			WithDetails(map[string]any{"field": "ids"})
	}
	for _, id := range ids {
		if id == 0 {
			return nil, models.NewValidationError("ids must be positive").
				WithDetails(map[string]any{"field": "ids"})
		}
	}
	posts, err := s.postRepo.GetBatch(ctx, viewerID(actor), ids)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

// UpdatePost overwrites the supplied fields. edited_at moves only when a
// value actually changed.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, in UpdatePostInput) (*models.Post, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireEditOrDelete(ctx, actor, post.CommunityID, post.AuthorUserID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Title != nil {
		title, err := validation.CleanText("title", *in.Title, validation.MaxTitleLength)
		if err != nil {
			return nil, invalidField("title", err)
		}
		if title != post.Title {
			fields["title"] = title
		}
	}
	if in.Body != nil {
		body, err := validation.CleanOptionalText("body", in.Body, validation.MaxBodyLength)
		if err != nil {
			return nil, invalidField("body", err)
		}
		if !equalOptional(body, post.Body) {
			fields["body"] = body
		}
	}
	if in.ImageURL != nil {
		imageURL, err := cleanImageURL(in.ImageURL)
		if err != nil {
			return nil, err
		}
		if !equalOptional(imageURL, post.ImageURL) {
			fields["image_url"] = imageURL
		}
	}
	if len(fields) == 0 {
		return post, nil
	}

	fields["edited_at"] = s.now()
	if err := s.postRepo.Update(ctx, post.ID, fields); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, actor.ID)
}

// DeletePost soft-deletes a post. Votes and comments stay in place.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if actor == nil {
		return models.NewUnauthenticatedError("authentication required")
	}
	post, err := s.postRepo.GetByID(ctx, id, actor.ID)
	if err != nil {
		return err
	}
	if err := s.policy.RequireEditOrDelete(ctx, actor, post.CommunityID, post.AuthorUserID); err != nil {
		return err
	}
	return s.postRepo.SoftDelete(ctx, post.ID)
}

func viewerID(actor *models.User) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}

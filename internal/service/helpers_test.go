package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkboard/internal/cache"
	"linkboard/internal/identity"
	"linkboard/internal/models"
	"linkboard/internal/policy"
	"linkboard/internal/repository"
	"linkboard/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// harness wires every service over one SQLite database.
type harness struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	users       repository.UserRepository
	roles       repository.RoleRepository
	posts       repository.PostRepository
	comments    repository.CommentRepository
	votes       repository.VoteRepository
	communities repository.CommunityRepository

	tokens *identity.TokenManager
	gate   *identity.Gate

	Auth       *AuthService
	User       *UserService
	Community  *CommunityService
	Post       *PostService
	Comment    *CommentService
	Vote       *VoteService
	sequence   int
	createdSeq time.Time
}

// newHarness builds the services. rdb may be nil.
func newHarness(t *testing.T, rdb *redis.Client) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		db:          db,
		users:       repository.NewUserRepository(db),
		roles:       repository.NewRoleRepository(db),
		posts:       repository.NewPostRepository(db),
		comments:    repository.NewCommentRepository(db),
		votes:       repository.NewVoteRepository(db),
		communities: repository.NewCommunityRepository(db, cache.NewStore(rdb)),
		createdSeq:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	p := policy.New(h.roles)
	h.tokens = identity.NewTokenManager("test-secret-test-secret-test-secret", "linkboard-test", time.Hour)
	h.gate = identity.NewGate(h.tokens, h.users, cache.NewRevocations(rdb))

	h.Auth = NewAuthService(h.users, h.tokens, h.gate).WithBcryptCost(bcrypt.MinCost)
	h.User = NewUserService(h.users)
	h.Community = NewCommunityService(h.communities, h.roles, h.users, p)
	h.Post = NewPostService(h.posts, h.Community, p, cache.NewIdempotency(rdb, time.Hour))
	h.Comment = NewCommentService(h.comments, h.posts, h.Community, p)
	h.Vote = NewVoteService(h.votes, h.posts, h.comments, h.Community, p)

	// Strictly increasing timestamps keep listing order deterministic.
	clock := func() time.Time {
		h.sequence++
		return h.createdSeq.Add(time.Duration(h.sequence) * time.Second)
	}
	h.Post.now = clock
	h.Comment.now = clock
	return h
}

func (h *harness) user(name string) *models.User {
	h.t.Helper()
	u := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Status:       models.UserStatusActive,
	}
	require.NoError(h.t, h.users.Create(h.ctx, u))
	return u
}

func (h *harness) community(owner *models.User, name string, typ models.CommunityType) *models.Community {
	h.t.Helper()
	c, err := h.Community.CreateCommunity(h.ctx, owner, CreateCommunityInput{Name: name, Type: string(typ)})
	require.NoError(h.t, err)
	return c
}

func (h *harness) grant(c *models.Community, u *models.User, role models.CommunityRole) {
	h.t.Helper()
	require.NoError(h.t, h.roles.Upsert(h.ctx, &models.CommunityRoleAssignment{
		CommunityID: c.ID, UserID: u.ID, Role: role,
	}))
}

func (h *harness) post(author *models.User, c *models.Community, title string) *models.Post {
	h.t.Helper()
	p, _, err := h.Post.CreatePost(h.ctx, author, CreatePostInput{Community: c.Name, Title: title})
	require.NoError(h.t, err)
	return p
}

func (h *harness) comment(author *models.User, p *models.Post, parent *models.Comment) *models.Comment {
	h.t.Helper()
	in := CreateCommentInput{PostID: p.ID, Body: "a comment"}
	if parent != nil {
		in.ParentCommentID = &parent.ID
	}
	c, err := h.Comment.CreateComment(h.ctx, author, in)
	require.NoError(h.t, err)
	return c
}

func strPtr(s string) *string { return &s }

// assertCode asserts that err is an AppError with the given code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"linkboard/internal/models"
	"linkboard/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture seeds rows directly into an isolated SQLite database.
type fixture struct {
	t   *testing.T
	db  *gorm.DB
	ctx context.Context
	seq int
	// base is the created_at of the first post; each later post is one
	// second newer.
	base time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:    t,
		db:   testutil.NewTestDB(t),
		ctx:  context.Background(),
		base: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u := &models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Status:       models.UserStatusActive,
	}
	require.NoError(f.t, NewUserRepository(f.db).Create(f.ctx, u))
	return u
}

func (f *fixture) community(name string, typ models.CommunityType, owner *models.User) *models.Community {
	f.t.Helper()
	c := &models.Community{Name: name, Type: typ, OwnerUserID: owner.ID}
	require.NoError(f.t, NewCommunityRepository(f.db, nil).Create(f.ctx, c))
	return c
}

func (f *fixture) role(c *models.Community, u *models.User, role models.CommunityRole) {
	f.t.Helper()
	require.NoError(f.t, NewRoleRepository(f.db).Upsert(f.ctx, &models.CommunityRoleAssignment{
		CommunityID: c.ID, UserID: u.ID, Role: role,
	}))
}

// post creates a post whose created_at is strictly increasing across calls,
// unless at is given.
func (f *fixture) post(c *models.Community, author *models.User, title string, at ...time.Time) *models.Post {
	f.t.Helper()
	created := f.base.Add(time.Duration(f.seq) * time.Second)
	if len(at) > 0 {
		created = at[0]
	}
	f.seq++
	p := &models.Post{CommunityID: c.ID, AuthorUserID: author.ID, Title: title, CreatedAt: created}
	require.NoError(f.t, NewPostRepository(f.db).Create(f.ctx, p))
	return p
}

func (f *fixture) comment(p *models.Post, author *models.User, parent *models.Comment) *models.Comment {
	f.t.Helper()
	created := f.base.Add(time.Duration(f.seq) * time.Second)
	f.seq++
	c := &models.Comment{PostID: p.ID, AuthorUserID: author.ID, Body: fmt.Sprintf("comment %d", f.seq), CreatedAt: created}
	if parent != nil {
		c.ParentCommentID = &parent.ID
	}
	require.NoError(f.t, NewCommentRepository(f.db).Create(f.ctx, c))
	return c
}

func (f *fixture) vote(kind models.SubjectKind, subjectID uint, u *models.User, value int) {
	f.t.Helper()
	require.NoError(f.t, NewVoteRepository(f.db).Cast(f.ctx, kind, subjectID, u.ID, value))
}

func postIDs(posts []*models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

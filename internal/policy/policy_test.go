package policy

import (
	"context"
	"errors"
	"testing"

	"linkboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func community(t models.CommunityType) *models.Community {
	return &models.Community{ID: 7, Type: t}
}

func TestCanView(t *testing.T) {
	t.Parallel()
	actor := &models.User{ID: 1}

	tests := []struct {
		name  string
		actor *models.User
		ctype models.CommunityType
		role  models.CommunityRole
		want  bool
	}{
		{"anonymous public", nil, models.CommunityTypePublic, models.RoleNone, true},
		{"anonymous restricted", nil, models.CommunityTypeRestricted, models.RoleNone, false},
		{"anonymous private", nil, models.CommunityTypePrivate, models.RoleNone, false},
		{"no role public", actor, models.CommunityTypePublic, models.RoleNone, true},
		{"no role private", actor, models.CommunityTypePrivate, models.RoleNone, false},
		{"no role restricted", actor, models.CommunityTypeRestricted, models.RoleNone, false},
		{"member private", actor, models.CommunityTypePrivate, models.RoleMember, true},
		{"mod restricted", actor, models.CommunityTypeRestricted, models.RoleMod, true},
		{"owner private", actor, models.CommunityTypePrivate, models.RoleOwner, true},
		{"banned public", actor, models.CommunityTypePublic, models.RoleBanned, false},
		{"banned private", actor, models.CommunityTypePrivate, models.RoleBanned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanView(tt.actor, community(tt.ctype), tt.role))
		})
	}
}

func TestCanPost(t *testing.T) {
	t.Parallel()
	actor := &models.User{ID: 1}

	assert.False(t, CanPost(nil, community(models.CommunityTypePublic), models.RoleNone))
	assert.True(t, CanPost(actor, community(models.CommunityTypePublic), models.RoleNone))
	assert.False(t, CanPost(actor, community(models.CommunityTypePublic), models.RoleBanned))
	assert.False(t, CanPost(actor, community(models.CommunityTypePrivate), models.RoleNone))
	assert.True(t, CanPost(actor, community(models.CommunityTypePrivate), models.RoleMember))
}

func TestCanModerateAndEdit(t *testing.T) {
	t.Parallel()
	actor := &models.User{ID: 1}

	assert.True(t, CanModerate(models.RoleOwner))
	assert.True(t, CanModerate(models.RoleMod))
	assert.False(t, CanModerate(models.RoleMember))
	assert.False(t, CanModerate(models.RoleBanned))
	assert.False(t, CanModerate(models.RoleNone))

	assert.True(t, CanEditOrDelete(actor, 1, models.RoleNone))
	assert.True(t, CanEditOrDelete(actor, 2, models.RoleMod))
	assert.False(t, CanEditOrDelete(actor, 2, models.RoleMember))
	assert.False(t, CanEditOrDelete(nil, 2, models.RoleMod))
}

type roleStoreStub struct {
	role  models.CommunityRole
	err   error
	calls int
}

func (s *roleStoreStub) GetRole(_ context.Context, _, _ uint) (models.CommunityRole, error) {
	s.calls++
	return s.role, s.err
}

func TestPolicy_AnonymousSkipsLookup(t *testing.T) {
	t.Parallel()
	store := &roleStoreStub{role: models.RoleMember}
	p := New(store)

	require.NoError(t, p.RequireView(context.Background(), nil, community(models.CommunityTypePublic)))
	err := p.RequireView(context.Background(), nil, community(models.CommunityTypePrivate))
	assert.True(t, models.IsCode(err, models.CodeForbidden))
	assert.Zero(t, store.calls)

	err = p.RequirePost(context.Background(), nil, community(models.CommunityTypePublic))
	assert.True(t, models.IsCode(err, models.CodeUnauthenticated))
}

func TestPolicy_Require(t *testing.T) {
	t.Parallel()
	actor := &models.User{ID: 3}
	ctx := context.Background()

	t.Run("banned cannot post in public", func(t *testing.T) {
		p := New(&roleStoreStub{role: models.RoleBanned})
		err := p.RequirePost(ctx, actor, community(models.CommunityTypePublic))
		assert.True(t, models.IsCode(err, models.CodeForbidden))
	})

	t.Run("member may view private", func(t *testing.T) {
		p := New(&roleStoreStub{role: models.RoleMember})
		assert.NoError(t, p.RequireView(ctx, actor, community(models.CommunityTypePrivate)))
	})

	t.Run("author edits without lookup", func(t *testing.T) {
		store := &roleStoreStub{}
		p := New(store)
		assert.NoError(t, p.RequireEditOrDelete(ctx, actor, 7, actor.ID))
		assert.Zero(t, store.calls)
	})

	t.Run("mod edits others", func(t *testing.T) {
		p := New(&roleStoreStub{role: models.RoleMod})
		assert.NoError(t, p.RequireEditOrDelete(ctx, actor, 7, 99))
	})

	t.Run("member cannot edit others", func(t *testing.T) {
		p := New(&roleStoreStub{role: models.RoleMember})
		err := p.RequireEditOrDelete(ctx, actor, 7, 99)
		assert.True(t, models.IsCode(err, models.CodeForbidden))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		p := New(&roleStoreStub{err: errors.New("db down")})
		err := p.RequireModerate(ctx, actor, 7)
		assert.True(t, models.IsCode(err, models.CodeInternal))
	})
}

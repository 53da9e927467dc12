package repository

import (
	"testing"

	"linkboard/internal/cache"
	"linkboard/internal/models"
	"linkboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityRepository_CreateGrantsOwner(t *testing.T) {
	f := newFixture(t)
	repo := NewCommunityRepository(f.db, nil)
	roles := NewRoleRepository(f.db)
	a := f.user("alice")

	c := &models.Community{Name: "c1", Type: models.CommunityTypePublic, OwnerUserID: a.ID}
	require.NoError(t, repo.Create(f.ctx, c))
	assert.NotZero(t, c.ID)

	role, err := roles.GetRole(f.ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	err = repo.Create(f.ctx, &models.Community{Name: "c1", Type: models.CommunityTypePublic, OwnerUserID: a.ID})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	// case-sensitive names
	require.NoError(t, repo.Create(f.ctx, &models.Community{Name: "C1", Type: models.CommunityTypePublic, OwnerUserID: a.ID}))
}

func TestCommunityRepository_PersonalIsUnique(t *testing.T) {
	f := newFixture(t)
	repo := NewCommunityRepository(f.db, nil)
	a := f.user("alice")

	first := &models.Community{Name: "alice-home", OwnerUserID: a.ID, Type: models.CommunityTypePublic, IsPersonal: true, PersonalUserID: &a.ID}
	require.NoError(t, repo.Create(f.ctx, first))

	got, err := repo.GetPersonal(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	second := &models.Community{Name: "alice-two", OwnerUserID: a.ID, Type: models.CommunityTypePublic, IsPersonal: true, PersonalUserID: &a.ID}
	assert.True(t, models.IsCode(repo.Create(f.ctx, second), models.CodeConflict))

	// the failed transaction left no owner row behind
	var n int64
	require.NoError(t, f.db.Model(&models.CommunityRoleAssignment{}).Where("user_id = ?", a.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCommunityRepository_CachedLookups(t *testing.T) {
	f := newFixture(t)
	mr, rdb := testutil.NewTestRedis(t)
	repo := NewCommunityRepository(f.db, cache.NewStore(rdb))
	a := f.user("alice")
	c := f.community("c1", models.CommunityTypePublic, a)

	got, err := repo.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Name)
	assert.True(t, mr.Exists(cache.CommunityKey(c.ID)))

	byName, err := repo.GetByName(f.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)
	assert.True(t, mr.Exists(cache.CommunityNameKey("c1")))

	require.NoError(t, repo.Update(f.ctx, c.ID, map[string]any{"type": models.CommunityTypePrivate}))
	assert.False(t, mr.Exists(cache.CommunityKey(c.ID)))
	assert.False(t, mr.Exists(cache.CommunityNameKey("c1")))

	got, err = repo.GetByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommunityTypePrivate, got.Type)

	_, err = repo.GetByID(f.ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = repo.GetByName(f.ctx, "nope")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestRoleRepository(t *testing.T) {
	f := newFixture(t)
	roles := NewRoleRepository(f.db)
	a, b := f.user("alice"), f.user("bob")
	c := f.community("c1", models.CommunityTypePrivate, a)

	role, err := roles.GetRole(f.ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)

	role, err = roles.GetRole(f.ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)

	inserted, err := roles.InsertIfAbsent(f.ctx, &models.CommunityRoleAssignment{CommunityID: c.ID, UserID: b.ID, Role: models.RoleMember})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = roles.InsertIfAbsent(f.ctx, &models.CommunityRoleAssignment{CommunityID: c.ID, UserID: b.ID, Role: models.RoleMember})
	require.NoError(t, err)
	assert.False(t, inserted)

	require.NoError(t, roles.Upsert(f.ctx, &models.CommunityRoleAssignment{CommunityID: c.ID, UserID: b.ID, Role: models.RoleBanned, GrantedByUserID: &a.ID}))
	role, err = roles.GetRole(f.ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBanned, role)

	var n int64
	require.NoError(t, f.db.Model(&models.CommunityRoleAssignment{}).Where("community_id = ? AND user_id = ?", c.ID, b.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	removed, err := roles.Delete(f.ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = roles.Delete(f.ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserRepository_CreateAndStatus(t *testing.T) {
	f := newFixture(t)
	users := NewUserRepository(f.db)
	a := f.user("alice")

	err := users.Create(f.ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
	err = users.Create(f.ctx, &models.User{Username: "other", Email: "alice@example.com", PasswordHash: "x"})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	got, err := users.GetByUsername(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, models.UserStatusActive, got.Status)

	_, err = users.GetByEmail(f.ctx, "nobody@example.com")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	reason := "spam"
	require.NoError(t, users.UpdateStatus(f.ctx, a.ID, models.UserStatusBanned, &reason))
	got, err = users.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusBanned, got.Status)
	require.NotNil(t, got.BannedReason)
	assert.Equal(t, "spam", *got.BannedReason)

	err = users.UpdateStatus(f.ctx, a.ID, models.UserStatusDeleted, nil)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	err = users.UpdateStatus(f.ctx, 999, models.UserStatusBanned, nil)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

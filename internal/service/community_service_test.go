package service

import (
	"testing"

	"linkboard/internal/models"
	"linkboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityService_Create(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	alice := h.user("alice")

	c, err := h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{
		Name:        "gophers",
		Description: strPtr("<script>x</script>All things <b>Go</b>"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CommunityTypePublic, c.Type)
	require.NotNil(t, c.Description)
	assert.Equal(t, "All things Go", *c.Description)

	role, err := h.roles.GetRole(h.ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	_, err = h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{Name: "gophers"})
	assertCode(t, err, models.CodeConflict)
	_, err = h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{Name: "posts"})
	assertCode(t, err, models.CodeInvalidArgument)
	_, err = h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{Name: "ok", Type: "secret"})
	assertCode(t, err, models.CodeInvalidArgument)
	_, err = h.Community.CreateCommunity(h.ctx, nil, CreateCommunityInput{Name: "anon"})
	assertCode(t, err, models.CodeUnauthenticated)
}

func TestCommunityService_Personal(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	alice := h.user("alice")

	c, err := h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{Name: "u_alice", Personal: true, Type: "private"})
	require.NoError(t, err)
	assert.True(t, c.IsPersonal)
	require.NotNil(t, c.PersonalUserID)
	assert.Equal(t, alice.ID, *c.PersonalUserID)

	_, err = h.Community.CreateCommunity(h.ctx, alice, CreateCommunityInput{Name: "u_alice2", Personal: true})
	assertCode(t, err, models.CodeConflict)
}

func TestCommunityService_Resolve(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	c := h.community(h.user("alice"), "c1", models.CommunityTypePublic)

	byName, err := h.Community.Resolve(h.ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byName.ID)
	byID, err := h.Community.Resolve(h.ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "c1", byID.Name)

	_, err = h.Community.Resolve(h.ctx, "C1")
	assertCode(t, err, models.CodeNotFound)
	_, err = h.Community.Resolve(h.ctx, "")
	assertCode(t, err, models.CodeInvalidArgument)
}

func TestCommunityService_Update(t *testing.T) {
	t.Parallel()
	_, rdb := testutil.NewTestRedis(t)
	h := newHarness(t, rdb)
	alice, bob := h.user("alice"), h.user("bob")
	c := h.community(alice, "gophers", models.CommunityTypePublic)

	// warm the cache
	_, err := h.Community.Resolve(h.ctx, "gophers")
	require.NoError(t, err)

	_, err = h.Community.UpdateCommunity(h.ctx, bob, UpdateCommunityInput{CommunityID: c.ID, Type: strPtr("private")})
	assertCode(t, err, models.CodeForbidden)

	updated, err := h.Community.UpdateCommunity(h.ctx, alice, UpdateCommunityInput{
		CommunityID: c.ID,
		Type:        strPtr("private"),
		Description: strPtr("members only"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CommunityTypePrivate, updated.Type)

	byName, err := h.Community.Resolve(h.ctx, "gophers")
	require.NoError(t, err)
	assert.Equal(t, models.CommunityTypePrivate, byName.Type)

	// moderators may update too
	h.grant(c, bob, models.RoleMod)
	_, err = h.Community.UpdateCommunity(h.ctx, bob, UpdateCommunityInput{CommunityID: c.ID, Type: strPtr("restricted")})
	require.NoError(t, err)

	_, err = h.Community.UpdateCommunity(h.ctx, alice, UpdateCommunityInput{CommunityID: c.ID, Type: strPtr("open")})
	assertCode(t, err, models.CodeInvalidArgument)
}

func TestCommunityService_Join(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	alice, bob, carol := h.user("alice"), h.user("bob"), h.user("carol")
	public := h.community(alice, "open", models.CommunityTypePublic)
	private := h.community(alice, "closed", models.CommunityTypePrivate)

	got, err := h.Community.Join(h.ctx, bob, public.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, got.Role)

	again, err := h.Community.Join(h.ctx, bob, public.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, again.Role)

	owner, err := h.Community.Join(h.ctx, alice, public.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, owner.Role)

	_, err = h.Community.Join(h.ctx, bob, private.ID)
	assertCode(t, err, models.CodeForbidden)

	h.grant(public, carol, models.RoleBanned)
	_, err = h.Community.Join(h.ctx, carol, public.ID)
	assertCode(t, err, models.CodeForbidden)
	role, err := h.roles.GetRole(h.ctx, public.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBanned, role)

	_, err = h.Community.Join(h.ctx, nil, public.ID)
	assertCode(t, err, models.CodeUnauthenticated)
	_, err = h.Community.Join(h.ctx, bob, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestCommunityService_Roles(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	alice, bob, carol := h.user("alice"), h.user("bob"), h.user("carol")
	c := h.community(alice, "gophers", models.CommunityTypePrivate)

	_, err := h.Community.SetRole(h.ctx, bob, SetRoleInput{CommunityID: c.ID, UserID: carol.ID, Role: "member"})
	assertCode(t, err, models.CodeForbidden)

	got, err := h.Community.SetRole(h.ctx, alice, SetRoleInput{CommunityID: c.ID, UserID: bob.ID, Role: "mod"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMod, got.Role)
	require.NotNil(t, got.GrantedByUserID)
	assert.Equal(t, alice.ID, *got.GrantedByUserID)

	// a mod can grant and ban
	_, err = h.Community.SetRole(h.ctx, bob, SetRoleInput{CommunityID: c.ID, UserID: carol.ID, Role: "banned"})
	require.NoError(t, err)

	_, err = h.Community.SetRole(h.ctx, bob, SetRoleInput{CommunityID: c.ID, UserID: carol.ID, Role: "owner"})
	assertCode(t, err, models.CodeInvalidArgument)
	_, err = h.Community.SetRole(h.ctx, bob, SetRoleInput{CommunityID: c.ID, UserID: alice.ID, Role: "banned"})
	assertCode(t, err, models.CodeForbidden)
	_, err = h.Community.SetRole(h.ctx, bob, SetRoleInput{CommunityID: c.ID, UserID: 999, Role: "member"})
	assertCode(t, err, models.CodeNotFound)

	assertCode(t, h.Community.RemoveRole(h.ctx, bob, c.ID, alice.ID), models.CodeForbidden)
	require.NoError(t, h.Community.RemoveRole(h.ctx, bob, c.ID, carol.ID))
	require.NoError(t, h.Community.RemoveRole(h.ctx, bob, c.ID, carol.ID))

	role, err := h.roles.GetRole(h.ctx, c.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
}

func TestCommunityService_RolesForDeletedUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	alice, dave := h.user("alice"), h.user("dave")
	c := h.community(alice, "gophers", models.CommunityTypePrivate)
	h.grant(c, dave, models.RoleMember)

	_, err := h.User.SetStatus(h.ctx, SetStatusInput{UserID: dave.ID, Status: "deleted"})
	require.NoError(t, err)

	_, err = h.Community.SetRole(h.ctx, alice, SetRoleInput{CommunityID: c.ID, UserID: dave.ID, Role: "mod"})
	assertCode(t, err, models.CodeNotFound)
	role, err := h.roles.GetRole(h.ctx, c.ID, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)

	// existing grants can still be cleaned up
	require.NoError(t, h.Community.RemoveRole(h.ctx, alice, c.ID, dave.ID))
	role, err = h.roles.GetRole(h.ctx, c.ID, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
}

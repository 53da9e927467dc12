// Package policy decides who may read, write and moderate community content.
// The decision functions are pure; Policy adds the keyed role lookup.
package policy

import (
	"context"

	"linkboard/internal/models"
)

// ReadRoles are the roles that open a non-public community to an actor.
var ReadRoles = []models.CommunityRole{models.RoleMember, models.RoleMod, models.RoleOwner}

// ModeratorRoles may moderate a community. Owner carries no extra powers.
var ModeratorRoles = []models.CommunityRole{models.RoleMod, models.RoleOwner}

// DeniedRoles deny everything regardless of community type.
var DeniedRoles = []models.CommunityRole{models.RoleBanned}

// OpenTypes are visible without any role.
var OpenTypes = []models.CommunityType{models.CommunityTypePublic}

func hasRole(role models.CommunityRole, set []models.CommunityRole) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

func isOpen(t models.CommunityType) bool {
	for _, open := range OpenTypes {
		if open == t {
			return true
		}
	}
	return false
}

// CanView reports whether an actor holding role may read content in community.
// actor is nil for anonymous callers.
func CanView(actor *models.User, community *models.Community, role models.CommunityRole) bool {
	if hasRole(role, DeniedRoles) {
		return false
	}
	if isOpen(community.Type) {
		return true
	}
	return actor != nil && hasRole(role, ReadRoles)
}

// CanPost reports whether actor may create content in community.
func CanPost(actor *models.User, community *models.Community, role models.CommunityRole) bool {
	return actor != nil && CanView(actor, community, role)
}

// CanModerate reports whether role grants moderation.
func CanModerate(role models.CommunityRole) bool {
	return hasRole(role, ModeratorRoles)
}

// CanEditOrDelete reports whether actor may change content written by authorID.
func CanEditOrDelete(actor *models.User, authorID uint, role models.CommunityRole) bool {
	if actor == nil {
		return false
	}
	return actor.ID == authorID || CanModerate(role)
}

// RoleStore fetches the single role row for (community, user).
// A missing row yields models.RoleNone and a nil error.
type RoleStore interface {
	GetRole(ctx context.Context, communityID, userID uint) (models.CommunityRole, error)
}

// Policy evaluates the decision functions against stored roles.
type Policy struct {
	roles RoleStore
}

// New returns a Policy reading roles from roles.
func New(roles RoleStore) *Policy {
	return &Policy{roles: roles}
}

// RoleOf returns actor's role in the community. Anonymous actors have no role
// and cost no lookup.
func (p *Policy) RoleOf(ctx context.Context, actor *models.User, communityID uint) (models.CommunityRole, error) {
	if actor == nil {
		return models.RoleNone, nil
	}
	return p.roles.GetRole(ctx, communityID, actor.ID)
}

// RequireView returns Forbidden unless actor may read community.
func (p *Policy) RequireView(ctx context.Context, actor *models.User, community *models.Community) error {
	role, err := p.RoleOf(ctx, actor, community.ID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !CanView(actor, community, role) {
		return models.NewForbiddenError("you cannot view this community")
	}
	return nil
}

// RequirePost returns Forbidden unless actor may post in community.
func (p *Policy) RequirePost(ctx context.Context, actor *models.User, community *models.Community) error {
	if actor == nil {
		return models.NewUnauthenticatedError("authentication required")
	}
	role, err := p.RoleOf(ctx, actor, community.ID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !CanPost(actor, community, role) {
		return models.NewForbiddenError("you cannot post in this community")
	}
	return nil
}

// RequireModerate returns Forbidden unless actor moderates communityID.
func (p *Policy) RequireModerate(ctx context.Context, actor *models.User, communityID uint) error {
	if actor == nil {
		return models.NewUnauthenticatedError("authentication required")
	}
	role, err := p.RoleOf(ctx, actor, communityID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !CanModerate(role) {
		return models.NewForbiddenError("moderator role required")
	}
	return nil
}

// RequireEditOrDelete returns Forbidden unless actor authored the content or
// moderates its community.
func (p *Policy) RequireEditOrDelete(ctx context.Context, actor *models.User, communityID, authorID uint) error {
	if actor == nil {
		return models.NewUnauthenticatedError("authentication required")
	}
	if actor.ID == authorID {
		return nil
	}
	role, err := p.RoleOf(ctx, actor, communityID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !CanEditOrDelete(actor, authorID, role) {
		return models.NewForbiddenError("only the author or a moderator can change this")
	}
	return nil
}

package service

import (
	"context"
	"strconv"
	"strings"

	"linkboard/internal/models"
	"linkboard/internal/policy"
	"linkboard/internal/repository"
	"linkboard/internal/validation"
)

type CommunityService struct {
	communityRepo repository.CommunityRepository
	roleRepo      repository.RoleRepository
	userRepo      repository.UserRepository
	policy        *policy.Policy
}

type CreateCommunityInput struct {
	Name        string
	Description *string
	Type        string
	Personal    bool
}

type UpdateCommunityInput struct {
	CommunityID uint
	Description *string
	Type        *string
}

type SetRoleInput struct {
	CommunityID uint
	UserID      uint
	Role        string
}

func NewCommunityService(
	communityRepo repository.CommunityRepository,
	roleRepo repository.RoleRepository,
	userRepo repository.UserRepository,
	p *policy.Policy,
) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		roleRepo:      roleRepo,
		userRepo:      userRepo,
		policy:        p,
	}
}

func invalidField(field string, err error) error {
	return models.NewValidationError(err.Error()).WithDetails(map[string]any{"field": field})
}

func parseCommunityType(raw string) (models.CommunityType, error) {
	t := models.CommunityType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", models.NewValidationError("type must be public, restricted, or private").
			WithDetails(map[string]any{"field": "type", "value": raw})
	}
	return t, nil
}

// Resolve looks a live community up by numeric id or by name.
func (s *CommunityService) Resolve(ctx context.Context, ref string) (*models.Community, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, models.NewValidationError("community is required").
			WithDetails(map[string]any{"field": "community"})
	}
	if validation.IsNumericRef(ref) {
		id, err := strconv.ParseUint(ref, 10, 64)
		if err != nil {
			return nil, models.NewNotFoundError("Community", ref)
		}
		return s.communityRepo.GetByID(ctx, uint(id))
	}
	return s.communityRepo.GetByName(ctx, ref)
}

func (s *CommunityService) GetCommunity(ctx context.Context, id uint) (*models.Community, error) {
	return s.communityRepo.GetByID(ctx, id)
}

// CreateCommunity creates a community owned by actor.
func (s *CommunityService) CreateCommunity(ctx context.Context, actor *models.User, in CreateCommunityInput) (*models.Community, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateCommunityName(name); err != nil {
		return nil, invalidField("name", err)
	}
	description, err := validation.CleanOptionalText("description", in.Description, validation.MaxDescriptionLength)
	if err != nil {
		return nil, invalidField("description", err)
	}
	ctype := models.CommunityTypePublic
	if strings.TrimSpace(in.Type) != "" {
		if ctype, err = parseCommunityType(in.Type); err != nil {
			return nil, err
		}
	}

	community := &models.Community{
		Name:        name,
		Description: description,
		Type:        ctype,
		OwnerUserID: actor.ID,
	}
	if in.Personal {
		if _, err := s.communityRepo.GetPersonal(ctx, actor.ID); err == nil {
			return nil, models.NewConflictError("user already has a personal community")
		} else if !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		owner := actor.ID
		community.IsPersonal = true
		community.PersonalUserID = &owner
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}
	return community, nil
}

// UpdateCommunity changes description and type. Moderators only.
func (s *CommunityService) UpdateCommunity(ctx context.Context, actor *models.User, in UpdateCommunityInput) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.RequireModerate(ctx, actor, community.ID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Description != nil {
		description, err := validation.CleanOptionalText("description", in.Description, validation.MaxDescriptionLength)
		if err != nil {
			return nil, invalidField("description", err)
		}
		if !equalOptional(description, community.Description) {
			fields["description"] = description
		}
	}
	if in.Type != nil {
		ctype, err := parseCommunityType(*in.Type)
		if err != nil {
			return nil, err
		}
		if ctype != community.Type {
			fields["type"] = ctype
		}
	}
	if len(fields) == 0 {
		return community, nil
	}

	if err := s.communityRepo.Update(ctx, community.ID, fields); err != nil {
		return nil, err
	}
	return s.communityRepo.GetByID(ctx, community.ID)
}

// Join makes actor a member of a public community. An existing role,
// including a ban, is never replaced.
func (s *CommunityService) Join(ctx context.Context, actor *models.User, communityID uint) (*models.CommunityRoleAssignment, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	role, err := s.policy.RoleOf(ctx, actor, community.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if role == models.RoleBanned {
		return nil, models.NewForbiddenError("you are banned from this community")
	}
	if role != models.RoleNone {
		return &models.CommunityRoleAssignment{CommunityID: community.ID, UserID: actor.ID, Role: role}, nil
	}
	if community.Type != models.CommunityTypePublic {
		return nil, models.NewForbiddenError("only public communities can be joined")
	}

	if _, err := s.roleRepo.InsertIfAbsent(ctx, &models.CommunityRoleAssignment{
		CommunityID: community.ID,
		UserID:      actor.ID,
		Role:        models.RoleMember,
	}); err != nil {
		return nil, err
	}

	// A concurrent grant may have won the insert.
	role, err = s.roleRepo.GetRole(ctx, community.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleBanned {
		return nil, models.NewForbiddenError("you are banned from this community")
	}
	return &models.CommunityRoleAssignment{CommunityID: community.ID, UserID: actor.ID, Role: role}, nil
}

// guardRoleChange loads the community, checks actor moderates it and that
// the target row is not the owner's.
func (s *CommunityService) guardRoleChange(ctx context.Context, actor *models.User, communityID, userID uint) (*models.Community, *models.User, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.policy.RequireModerate(ctx, actor, community.ID); err != nil {
		return nil, nil, err
	}
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if userID == community.OwnerUserID {
		return nil, nil, models.NewForbiddenError("the owner's role cannot be changed")
	}
	current, err := s.roleRepo.GetRole(ctx, community.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if current == models.RoleOwner {
		return nil, nil, models.NewForbiddenError("the owner's role cannot be changed")
	}
	return community, target, nil
}

// SetRole grants member, mod or banned to a user.
func (s *CommunityService) SetRole(ctx context.Context, actor *models.User, in SetRoleInput) (*models.CommunityRoleAssignment, error) {
	role := models.CommunityRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if !role.Valid() || role == models.RoleOwner {
		return nil, models.NewValidationError("role must be member, mod, or banned").
			WithDetails(map[string]any{"field": "role", "value": in.Role})
	}
	community, target, err := s.guardRoleChange(ctx, actor, in.CommunityID, in.UserID)
	if err != nil {
		return nil, err
	}
	// Deleted accounts can lose grants but never receive them.
	if target.Status == models.UserStatusDeleted {
		return nil, models.NewNotFoundError("User", in.UserID)
	}

	granter := actor.ID
	assignment := &models.CommunityRoleAssignment{
		CommunityID:     community.ID,
		UserID:          in.UserID,
		Role:            role,
		GrantedByUserID: &granter,
	}
	if err := s.roleRepo.Upsert(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// RemoveRole drops a user's grant. Removing an absent grant succeeds.
func (s *CommunityService) RemoveRole(ctx context.Context, actor *models.User, communityID, userID uint) error {
	community, _, err := s.guardRoleChange(ctx, actor, communityID, userID)
	if err != nil {
		return err
	}
	_, err = s.roleRepo.Delete(ctx, community.ID, userID)
	return err
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

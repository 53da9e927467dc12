package server

import (
	"linkboard/internal/featureflags"
	"linkboard/internal/models"
	"linkboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/v1/communities
// @Summary Create community
// @Description Create a community owned by the caller. At most one personal community per user.
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,description=string,type=string,personal=bool} true "Community"
// @Success 201 {object} models.DataResponse{data=models.Community}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /communities [post]
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Type        string  `json:"type"`
		Personal    bool    `json:"personal"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	if req.Personal && !s.flags.Enabled(featureflags.PersonalCommunities, currentSession(c).UserID()) {
		return s.respondError(c, models.NewForbiddenError("personal communities are disabled"))
	}

	community, err := s.communityService.CreateCommunity(c.UserContext(), currentUser(c), service.CreateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Personal:    req.Personal,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, community)
}

// GetCommunity handles GET /api/v1/communities/:ref
// @Summary Get community
// @Description Look up a community by id or name. Metadata is visible for every community type.
// @Tags communities
// @Produce json
// @Param ref path string true "Community ID or name"
// @Success 200 {object} models.DataResponse{data=models.Community}
// @Failure 404 {object} models.ErrorResponse
// @Router /communities/{ref} [get]
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	community, err := s.communityService.Resolve(c.UserContext(), c.Params("ref"))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, community)
}

// UpdateCommunity handles PATCH /api/v1/communities/:id
// @Summary Update community
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Param request body object{description=string,type=string} true "Changes"
// @Success 200 {object} models.DataResponse{data=models.Community}
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id} [patch]
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Description *string `json:"description"`
		Type        *string `json:"type"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	community, err := s.communityService.UpdateCommunity(c.UserContext(), currentUser(c), service.UpdateCommunityInput{
		CommunityID: id,
		Description: req.Description,
		Type:        req.Type,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, community)
}

// JoinCommunity handles POST /api/v1/communities/:id/join
// @Summary Join community
// @Description Join a public community as a member. An existing role is returned unchanged.
// @Tags communities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Success 200 {object} models.DataResponse{data=models.CommunityRoleAssignment}
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/join [post]
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	role, err := s.communityService.Join(c.UserContext(), currentUser(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, role)
}

// SetRole handles PUT /api/v1/communities/:id/roles/:user_id
// @Summary Assign role
// @Tags communities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Param user_id path int true "User ID"
// @Param request body object{role=string} true "member, mod or banned"
// @Success 200 {object} models.DataResponse{data=models.CommunityRoleAssignment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/roles/{user_id} [put]
func (s *Server) SetRole(c *fiber.Ctx) error {
	communityID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	userID, err := parseID(c, "user_id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	role, err := s.communityService.SetRole(c.UserContext(), currentUser(c), service.SetRoleInput{
		CommunityID: communityID,
		UserID:      userID,
		Role:        req.Role,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, role)
}

// RemoveRole handles DELETE /api/v1/communities/:id/roles/:user_id
// @Summary Remove role
// @Tags communities
// @Security BearerAuth
// @Param id path int true "Community ID"
// @Param user_id path int true "User ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /communities/{id}/roles/{user_id} [delete]
func (s *Server) RemoveRole(c *fiber.Ctx) error {
	communityID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	userID, err := parseID(c, "user_id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.communityService.RemoveRole(c.UserContext(), currentUser(c), communityID, userID); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

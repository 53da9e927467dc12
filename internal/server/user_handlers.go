package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/v1/users/me
// @Summary Current user
// @Description Private view of the authenticated user, including email
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DataResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	return respondData(c, fiber.StatusOK, currentUser(c))
}

// GetUser handles GET /api/v1/users/:ref
// @Summary Get user
// @Description Look up a user by id or username
// @Tags users
// @Produce json
// @Param ref path string true "User ID or username"
// @Success 200 {object} models.DataResponse{data=models.PublicUser}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{ref} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.userService.Resolve(c.UserContext(), c.Params("ref"))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, user.Public())
}

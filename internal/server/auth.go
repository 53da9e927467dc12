package server

import (
	"linkboard/internal/identity"
	"linkboard/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) attachSession(c *fiber.Ctx, session *identity.Session) {
	c.Locals(sessionLocal, session)
	c.Locals("userID", session.UserID())
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), session.UserID()))
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := s.gate.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return s.respondError(c, err)
		}
		s.attachSession(c, session)
		return c.Next()
	}
}

// OptionalAuth authenticates when an Authorization header is present. A
// present but invalid header is rejected rather than downgraded to anonymous.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := s.gate.AuthenticateOptional(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return s.respondError(c, err)
		}
		if session != nil {
			s.attachSession(c, session)
		}
		return c.Next()
	}
}

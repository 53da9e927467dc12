package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"linkboard/internal/identity"
	"linkboard/internal/middleware"
	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

// respondError writes the error envelope. Unexpected errors are logged with
// the request context before their message is masked.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr, ok := models.AsAppError(err)
	if !ok || appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

// errorHandler renders framework errors (unknown routes, bad methods,
// recovered panics) with the same envelope as handler errors.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return models.RespondWithError(c, models.NewNotFoundError("Route", c.Path()))
		case fiber.StatusMethodNotAllowed:
			return c.Status(fiber.StatusMethodNotAllowed).JSON(models.ErrorResponse{Error: models.ErrorBody{
				Code:    models.CodeInvalidArgument,
				Message: "method not allowed",
			}})
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: models.ErrorBody{
				Code:    models.CodeInvalidArgument,
				Message: fe.Message,
			}})
		}
	}
	return s.respondError(c, err)
}

// respondData writes the success envelope.
func respondData(c *fiber.Ctx, status int, data any) error {
	return models.RespondWithData(c, status, data, nil)
}

// parseBody decodes the JSON request body into dest.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return models.NewValidationError("invalid request body")
	}
	return nil
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("invalid " + strings.ReplaceAll(param, "_", " ")).
			WithDetails(map[string]any{"field": param, "value": raw})
	}
	return uint(id), nil
}

// parseQueryID reads an optional positive id from the query string.
func parseQueryID(c *fiber.Ctx, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("invalid " + key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return uint(id), nil
}

// currentSession returns the authenticated session, nil for anonymous.
func currentSession(c *fiber.Ctx) *identity.Session {
	session, _ := c.Locals(sessionLocal).(*identity.Session)
	return session
}

// currentUser returns the authenticated user, nil for anonymous.
func currentUser(c *fiber.Ctx) *models.User {
	if session := currentSession(c); session != nil {
		return session.User
	}
	return nil
}

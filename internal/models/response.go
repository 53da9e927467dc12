package models

import "github.com/gofiber/fiber/v2"

// Meta carries keyset pagination state.
type Meta struct {
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// DataResponse is the success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// RespondWithError writes the error envelope with the status derived from err.
// Internal errors never leak their cause to the client.
func RespondWithError(c *fiber.Ctx, err error) error {
	body := ErrorBody{Code: CodeInternal, Message: "Internal server error"}
	if appErr, ok := AsAppError(err); ok && appErr.Code != CodeInternal {
		body = ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}
	return c.Status(StatusFor(err)).JSON(ErrorResponse{Error: body})
}

// RespondWithData writes the success envelope.
func RespondWithData(c *fiber.Ctx, status int, data any, meta *Meta) error {
	return c.Status(status).JSON(DataResponse{Data: data, Meta: meta})
}

package server

import (
	"linkboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

type voteRequest struct {
	Value int `json:"value"`
}

func (s *Server) castVote(c *fiber.Ctx, kind models.SubjectKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req voteRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	state, err := s.voteService.Cast(c.UserContext(), currentUser(c), kind, id, req.Value)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, state)
}

func (s *Server) clearVote(c *fiber.Ctx, kind models.SubjectKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	state, err := s.voteService.Clear(c.UserContext(), currentUser(c), kind, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, state)
}

// CastPostVote handles PUT /api/v1/posts/:id/vote
// @Summary Vote on post
// @Description Set the caller's vote to +1 or -1. Repeating a vote is a no-op.
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{value=int} true "+1 or -1"
// @Success 200 {object} models.DataResponse{data=models.VoteState}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/vote [put]
func (s *Server) CastPostVote(c *fiber.Ctx) error {
	return s.castVote(c, models.SubjectPost)
}

// ClearPostVote handles DELETE /api/v1/posts/:id/vote
// @Summary Clear post vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.DataResponse{data=models.VoteState}
// @Router /posts/{id}/vote [delete]
func (s *Server) ClearPostVote(c *fiber.Ctx) error {
	return s.clearVote(c, models.SubjectPost)
}

// GetPostScore handles GET /api/v1/posts/:id/score
// @Summary Post score
// @Tags votes
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.DataResponse{data=models.VoteState}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/score [get]
func (s *Server) GetPostScore(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	state, err := s.voteService.Score(c.UserContext(), currentUser(c), models.SubjectPost, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, state)
}

// CastCommentVote handles PUT /api/v1/comments/:id/vote
// @Summary Vote on comment
// @Tags votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{value=int} true "+1 or -1"
// @Success 200 {object} models.DataResponse{data=models.VoteState}
// @Router /comments/{id}/vote [put]
func (s *Server) CastCommentVote(c *fiber.Ctx) error {
	return s.castVote(c, models.SubjectComment)
}

// ClearCommentVote handles DELETE /api/v1/comments/:id/vote
// @Summary Clear comment vote
// @Tags votes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} models.DataResponse{data=models.VoteState}
// @Router /comments/{id}/vote [delete]
func (s *Server) ClearCommentVote(c *fiber.Ctx) error {
	return s.clearVote(c, models.SubjectComment)
}

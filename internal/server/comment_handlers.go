package server

import (
	"linkboard/internal/models"
	"linkboard/internal/pagination"
	"linkboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/v1/posts/:id/comments
// @Summary List comments
// @Description Keyset-paginated comments on a post, oldest first by default
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param limit query int false "Page size (1-100)" default(50)
// @Param cursor query string false "Opaque cursor from meta.next_cursor"
// @Param sort query string false "new, top or hot" default(new)
// @Param order query string false "asc or desc" default(asc)
// @Param parent_id query int false "Only replies to this comment"
// @Success 200 {object} models.DataResponse{data=[]models.Comment,meta=models.Meta}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	page, err := service.ParsePageRequest(c.Query("limit"), c.Query("cursor"), c.Query("sort"), c.Query("order"),
		service.DefaultCommentLimit, pagination.OrderAsc)
	if err != nil {
		return s.respondError(c, err)
	}
	parentID, err := parseQueryID(c, "parent_id")
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.ListCommentsInput{PostID: postID, Page: page}
	if parentID != 0 {
		in.ParentID = &parentID
	}
	result, err := s.commentService.ListComments(c.UserContext(), currentUser(c), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, result.Items, result.Meta())
}

// CreateComment handles POST /api/v1/posts/:id/comments
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{body=string,parent_comment_id=int} true "Comment"
// @Success 201 {object} models.DataResponse{data=models.Comment}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Body            string `json:"body"`
		ParentCommentID *uint  `json:"parent_comment_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), currentUser(c), service.CreateCommentInput{
		PostID:          postID,
		Body:            req.Body,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, comment)
}

// UpdateComment handles PATCH /api/v1/comments/:id
// @Summary Edit comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body object{body=string} true "Changes"
// @Success 200 {object} models.DataResponse{data=models.Comment}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Body *string `json:"body"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), currentUser(c), service.UpdateCommentInput{
		CommentID: id,
		Body:      req.Body,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.commentService.DeleteComment(c.UserContext(), currentUser(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package server

import (
	"bytes"
	"encoding/json"
	"strconv"

	"linkboard/internal/models"
	"linkboard/internal/pagination"
	"linkboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// communityRef accepts a community given either as a JSON string (name or
// id) or as a JSON number (id).
type communityRef string

func (r *communityRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = communityRef(s)
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = communityRef(strconv.FormatUint(id, 10))
	return nil
}

// CreatePost handles POST /api/v1/posts
// @Summary Create post
// @Description Create a post in a community. A repeated Idempotency-Key returns the original post with 200.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client key for safe retries"
// @Param request body object{community=string,title=string,body=string,image_url=string} true "Post"
// @Success 201 {object} models.DataResponse{data=models.Post}
// @Success 200 {object} models.DataResponse{data=models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Community communityRef `json:"community"`
		Title     string       `json:"title"`
		Body      *string      `json:"body"`
		ImageURL  *string      `json:"image_url"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	post, replayed, err := s.postService.CreatePost(c.UserContext(), currentUser(c), service.CreatePostInput{
		Community:      string(req.Community),
		Title:          req.Title,
		Body:           req.Body,
		ImageURL:       req.ImageURL,
		IdempotencyKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	if replayed {
		c.Set("Idempotent-Replayed", "true")
		return respondData(c, fiber.StatusOK, post)
	}
	return respondData(c, fiber.StatusCreated, post)
}

// ListPosts handles GET /api/v1/posts
// @Summary List posts
// @Description Keyset-paginated listing of the posts visible to the caller
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (1-100)" default(20)
// @Param cursor query string false "Opaque cursor from meta.next_cursor"
// @Param sort query string false "new, top or hot" default(new)
// @Param order query string false "asc or desc" default(desc)
// @Param filter[community_id] query int false "Community filter"
// @Param filter[author_id] query int false "Author filter"
// @Param q query string false "Title or body substring"
// @Success 200 {object} models.DataResponse{data=[]models.Post,meta=models.Meta}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page, err := service.ParsePageRequest(c.Query("limit"), c.Query("cursor"), c.Query("sort"), c.Query("order"),
		service.DefaultPostLimit, pagination.OrderDesc)
	if err != nil {
		return s.respondError(c, err)
	}
	communityID, err := parseQueryID(c, "filter[community_id]")
	if err != nil {
		return s.respondError(c, err)
	}
	authorID, err := parseQueryID(c, "filter[author_id]")
	if err != nil {
		return s.respondError(c, err)
	}

	result, err := s.postService.ListPosts(c.UserContext(), currentUser(c), service.ListPostsInput{
		CommunityID: communityID,
		AuthorID:    authorID,
		Query:       c.Query("q"),
		Page:        page,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, result.Items, result.Meta())
}

// BatchPosts handles POST /api/v1/posts/batch
// @Summary Batch fetch posts
// @Description Fetch up to 100 posts by id. Invisible and missing ids are omitted.
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{ids=[]int} true "Post IDs"
// @Success 200 {object} models.DataResponse{data=[]models.Post}
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/batch [post]
func (s *Server) BatchPosts(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	posts, err := s.postService.BatchPosts(c.UserContext(), currentUser(c), req.IDs)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, posts)
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.DataResponse{data=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	post, err := s.postService.GetPost(c.UserContext(), currentUser(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, post)
}

// UpdatePost handles PATCH /api/v1/posts/:id
// @Summary Edit post
// @Description Overwrite title, body or image_url. edited_at moves only when a value changes.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{title=string,body=string,image_url=string} true "Changes"
// @Success 200 {object} models.DataResponse{data=models.Post}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	var req struct {
		Title    *string `json:"title"`
		Body     *string `json:"body"`
		ImageURL *string `json:"image_url"`
	}
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), currentUser(c), service.UpdatePostInput{
		PostID:   id,
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUser(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

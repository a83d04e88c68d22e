package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/middleware"
	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/query"
)

type CommentsHandler struct {
	DB *gorm.DB
}

func NewCommentsHandler(db *gorm.DB) *CommentsHandler {
	return &CommentsHandler{DB: db}
}

var commentFilters = map[string]query.FilterMapping{
	"sightingId": {Type: query.TypeNumber, Column: "fk_sighting_id"},
	"username":   {Type: query.TypeString, Column: "fk_username", AllowMultiValue: true},
}

// List returns comments. Anyone may list the comments of a single sighting;
// only administrators may browse comments across all sightings.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	params := query.Parse(c)

	if _, ok := params.Filters["sightingId"]; !ok {
		claims := middleware.CurrentClaims(c)
		if claims == nil || claims.Role != models.RoleAdmin {
			return httperr.BadRequest("sightingId query parameter is required.")
		}
	}

	scope, err := query.Scope(params.Filters, commentFilters)
	if err != nil {
		return err
	}

	page, err := query.FindAllPaginated[models.Comment](
		h.DB.Model(&models.Comment{}).Scopes(scope),
		params.Pagination,
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *CommentsHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Comment not found.")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Comment not found.")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(comment)
}

type createCommentRequest struct {
	Content    string `json:"content"`
	SightingID uint   `json:"sightingId"`
}

// Create posts a comment on a sighting, owned by the caller.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)

	var req createCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	req.Content = sanitize(req.Content)
	if req.Content == "" {
		return httperr.BadRequest("Content is required.")
	}

	var sighting models.Sighting
	if err := h.DB.First(&sighting, req.SightingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.BadRequest("Referenced sighting does not exist.")
		}
		return err
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", claims.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.BadRequest("Referenced user does not exist.")
		}
		return err
	}

	comment := models.Comment{
		Content:    req.Content,
		Username:   claims.Username,
		SightingID: req.SightingID,
	}

	if err := h.DB.Create(&comment).Error; err != nil {
		return err
	}

	logger.InfoWithUser(claims.Username, "comment_created", map[string]interface{}{
		"comment_id":  comment.ID,
		"sighting_id": comment.SightingID,
	})

	return c.Status(fiber.StatusCreated).JSON(comment)
}

type updateCommentRequest struct {
	Content *string `json:"content"`
}

func (h *CommentsHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Comment not found.")
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Comment not found.")
		}
		return err
	}

	if req.Content == nil {
		return httperr.BadRequest("No valid fields to update.")
	}
	content := sanitize(*req.Content)
	if content == "" {
		return httperr.BadRequest("Content is required.")
	}

	if err := h.DB.Model(&comment).Update("content", content).Error; err != nil {
		return err
	}

	logger.Info("comment_updated", map[string]interface{}{"comment_id": comment.ID})

	return c.Status(fiber.StatusOK).JSON(comment)
}

func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Comment not found.")
	}

	var comment models.Comment
	if err := h.DB.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Comment not found.")
		}
		return err
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		return err
	}

	logger.Info("comment_deleted", map[string]interface{}{"comment_id": id})

	return c.SendStatus(fiber.StatusNoContent)
}

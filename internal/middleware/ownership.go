package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
)

// Ownership guards mutations: the caller must own the target resource or
// carry the ADMIN role.
type Ownership struct {
	DB *gorm.DB
}

func NewOwnership(db *gorm.DB) *Ownership {
	return &Ownership{DB: db}
}

func (o *Ownership) CanModifyUser(c *fiber.Ctx) error {
	claims := CurrentClaims(c)
	if claims == nil {
		return httperr.Unauthorized("Unauthenticated.")
	}

	username := c.Params("username")
	if claims.Username != username && claims.Role != models.RoleAdmin {
		o.logDenied(claims.Username, "user", username, c.Path())
		return httperr.Forbidden("Access denied.")
	}

	return c.Next()
}

func (o *Ownership) CanModifySighting(c *fiber.Ctx) error {
	claims := CurrentClaims(c)
	if claims == nil {
		return httperr.Unauthorized("Unauthenticated.")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return httperr.NotFound("Sighting not found.")
	}

	var sighting models.Sighting
	if err := o.DB.First(&sighting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Sighting not found.")
		}
		return err
	}

	if sighting.Username != claims.Username && claims.Role != models.RoleAdmin {
		o.logDenied(claims.Username, "sighting", c.Params("id"), c.Path())
		return httperr.Forbidden("Access denied.")
	}

	return c.Next()
}

func (o *Ownership) CanModifyComment(c *fiber.Ctx) error {
	claims := CurrentClaims(c)
	if claims == nil {
		return httperr.Unauthorized("Unauthenticated.")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return httperr.NotFound("Comment not found.")
	}

	var comment models.Comment
	if err := o.DB.First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Comment not found.")
		}
		return err
	}

	if comment.Username != claims.Username && claims.Role != models.RoleAdmin {
		o.logDenied(claims.Username, "comment", c.Params("id"), c.Path())
		return httperr.Forbidden("Access denied.")
	}

	return c.Next()
}

func (o *Ownership) logDenied(user, resourceType, resourceID, path string) {
	logger.WarnWithUser(user, "ownership_denied", map[string]interface{}{
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"path":          path,
	})
}

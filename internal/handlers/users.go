package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/query"
	"github.com/geosight/backend/pkg/utils"
)

type UsersHandler struct {
	DB *gorm.DB
}

func NewUsersHandler(db *gorm.DB) *UsersHandler {
	return &UsersHandler{DB: db}
}

// Filter keys exposed on the user list endpoint.
var userFilters = map[string]query.FilterMapping{
	"role":  {Type: query.TypeString, Column: "role_name", AllowMultiValue: true},
	"email": {Type: query.TypeString, Column: "email"},
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	params := query.Parse(c)

	scope, err := query.Scope(params.Filters, userFilters)
	if err != nil {
		return err
	}

	page, err := query.FindAllPaginated[models.User](
		h.DB.Model(&models.User{}).Scopes(scope),
		params.Pagination,
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))

	var user models.User
	if err := h.DB.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User not found.")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

type replaceUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Replace is the full update: every client-settable field must be provided.
func (h *UsersHandler) Replace(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))

	var req replaceUserRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !isEmailValid(req.Email) {
		return httperr.BadRequest("Email not valid.")
	}
	if !isPasswordValid(req.Password) {
		return httperr.BadRequest("Password not valid. It must contain an uppercase character, a number and a special character.")
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User not found. Use /signup to create a new user.")
		}
		return err
	}

	if err := h.ensureEmailAvailable(req.Email, username); err != nil {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"email":         req.Email,
		"password_hash": passwordHash,
	}
	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		return err
	}

	logger.InfoWithUser(username, "user_replaced", nil)

	return h.respondWithUser(c, username)
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Update is the partial update: only provided fields change. The password is
// hashed only when it is part of the write.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User not found.")
		}
		return err
	}

	updates := map[string]interface{}{}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !isEmailValid(email) {
			return httperr.BadRequest("Email not valid.")
		}
		if err := h.ensureEmailAvailable(email, username); err != nil {
			return err
		}
		updates["email"] = email
	}

	if req.Password != nil {
		if !isPasswordValid(*req.Password) {
			return httperr.BadRequest("Password not valid. It must contain an uppercase character, a number and a special character.")
		}
		passwordHash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return err
		}
		updates["password_hash"] = passwordHash
	}

	if req.Role != nil {
		roleName := strings.TrimSpace(*req.Role)
		var role models.UserRole
		if err := h.DB.First(&role, "name = ?", roleName).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.BadRequest("Referenced role does not exist.")
			}
			return err
		}
		updates["role_name"] = role.Name
	}

	if len(updates) == 0 {
		return httperr.BadRequest("No valid fields to update.")
	}

	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		return err
	}

	logger.InfoWithUser(username, "user_updated", nil)

	return h.respondWithUser(c, username)
}

// Delete removes a user. It is blocked while sightings reference the user;
// the user's comments are removed along with the account.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.Params("username"))

	var user models.User
	if err := h.DB.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User not found.")
		}
		return err
	}

	var sightings int64
	if err := h.DB.Model(&models.Sighting{}).Where("username = ?", username).Count(&sightings).Error; err != nil {
		return err
	}
	if sightings > 0 {
		return httperr.Conflict("User still has sightings and cannot be deleted.")
	}

	if err := h.DB.Where("fk_username = ?", username).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := h.DB.Delete(&user).Error; err != nil {
		return err
	}

	logger.InfoWithUser(username, "user_deleted", nil)

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UsersHandler) ensureEmailAvailable(email, username string) error {
	var other models.User
	err := h.DB.First(&other, "email = ? AND username <> ?", email, username).Error
	if err == nil {
		return httperr.BadRequest("Email already in use.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (h *UsersHandler) respondWithUser(c *fiber.Ctx, username string) error {
	var user models.User
	if err := h.DB.First(&user, "username = ?", username).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

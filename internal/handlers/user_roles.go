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
)

type UserRolesHandler struct {
	DB *gorm.DB
}

func NewUserRolesHandler(db *gorm.DB) *UserRolesHandler {
	return &UserRolesHandler{DB: db}
}

// Create handles PUT /user-roles/:roleName, creating the named role.
func (h *UserRolesHandler) Create(c *fiber.Ctx) error {
	roleName := strings.TrimSpace(c.Params("roleName"))
	if !isRoleNameValid(roleName) {
		return httperr.BadRequest("Role name not valid.")
	}

	var existing models.UserRole
	if err := h.DB.First(&existing, "name = ?", roleName).Error; err == nil {
		return httperr.Conflict("User role already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	role := models.UserRole{Name: roleName}
	if err := h.DB.Create(&role).Error; err != nil {
		return err
	}

	logger.Info("user_role_created", map[string]interface{}{"role": roleName})

	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *UserRolesHandler) List(c *fiber.Ctx) error {
	params := query.Parse(c)

	page, err := query.FindAllPaginated[models.UserRole](
		h.DB.Model(&models.UserRole{}),
		params.Pagination,
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *UserRolesHandler) Get(c *fiber.Ctx) error {
	roleName := strings.TrimSpace(c.Params("roleName"))

	var role models.UserRole
	if err := h.DB.First(&role, "name = ?", roleName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User role not found.")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(role)
}

type updateUserRoleRequest struct {
	RoleName *string `json:"roleName"`
}

// Update renames a role. Users referencing the old name follow the rename.
func (h *UserRolesHandler) Update(c *fiber.Ctx) error {
	roleName := strings.TrimSpace(c.Params("roleName"))

	var req updateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	var role models.UserRole
	if err := h.DB.First(&role, "name = ?", roleName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User role not found.")
		}
		return err
	}

	if req.RoleName == nil || strings.TrimSpace(*req.RoleName) == roleName {
		return c.Status(fiber.StatusOK).JSON(role)
	}

	newName := strings.TrimSpace(*req.RoleName)
	if !isRoleNameValid(newName) {
		return httperr.BadRequest("Role name not valid.")
	}

	var existing models.UserRole
	if err := h.DB.First(&existing, "name = ?", newName).Error; err == nil {
		return httperr.Conflict("User role already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if roleName == models.DefaultRoleName {
		return httperr.BadRequest("The default role cannot be renamed.")
	}

	// Insert the new name before moving users over, so the role FK stays
	// satisfied throughout; the old row goes last.
	if err := h.DB.Create(&models.UserRole{Name: newName}).Error; err != nil {
		return err
	}
	if err := h.DB.Model(&models.User{}).Where("role_name = ?", roleName).Update("role_name", newName).Error; err != nil {
		return err
	}
	if err := h.DB.Delete(&models.UserRole{}, "name = ?", roleName).Error; err != nil {
		return err
	}

	logger.Info("user_role_renamed", map[string]interface{}{
		"from": roleName,
		"to":   newName,
	})

	var renamed models.UserRole
	if err := h.DB.First(&renamed, "name = ?", newName).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(renamed)
}

// Delete removes a role. Users still assigned to it revert to the default
// role before the role row goes.
func (h *UserRolesHandler) Delete(c *fiber.Ctx) error {
	roleName := strings.TrimSpace(c.Params("roleName"))

	var role models.UserRole
	if err := h.DB.First(&role, "name = ?", roleName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("User role not found.")
		}
		return err
	}

	if roleName == models.DefaultRoleName {
		return httperr.BadRequest("The default role cannot be deleted.")
	}

	if err := h.DB.Model(&models.User{}).
		Where("role_name = ?", roleName).
		Update("role_name", models.DefaultRoleName).Error; err != nil {
		return err
	}

	if err := h.DB.Delete(&role).Error; err != nil {
		return err
	}

	logger.Info("user_role_deleted", map[string]interface{}{"role": roleName})

	return c.SendStatus(fiber.StatusNoContent)
}

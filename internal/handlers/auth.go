package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/utils"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login checks the credentials and returns a signed token plus the profile.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}
	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	if err := h.DB.First(&user, "username = ?", req.Username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("login_failed_user_not_found", map[string]interface{}{
				"username": req.Username,
				"ip":       c.IP(),
			})
			return httperr.Unauthorized("Invalid credentials.")
		}
		return err
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.WarnWithUser(user.Username, "login_failed_invalid_password", map[string]interface{}{
			"ip": c.IP(),
		})
		return httperr.Unauthorized("Invalid credentials.")
	}

	token, err := utils.GenerateToken(user.Username, user.RoleName)
	if err != nil {
		return err
	}

	logger.InfoWithUser(user.Username, "user_login", map[string]interface{}{"ip": c.IP()})

	return c.Status(fiber.StatusOK).JSON(tokenResponse{Token: token, User: &user})
}

// Signup creates a new account with the default role and logs it in.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	req.Username = sanitize(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !isUsernameValid(req.Username) {
		return httperr.BadRequest("Username not valid.")
	}
	if !isEmailValid(req.Email) {
		return httperr.BadRequest("Email not valid.")
	}
	if !isPasswordValid(req.Password) {
		return httperr.BadRequest("Password not valid. It must contain an uppercase character, a number and a special character.")
	}

	var existing models.User
	if err := h.DB.First(&existing, "username = ?", req.Username).Error; err == nil {
		return httperr.Conflict("User already exists.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return httperr.BadRequest("Email already in use.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		RoleName:     models.DefaultRoleName,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(user.Username, user.RoleName)
	if err != nil {
		return err
	}

	logger.InfoWithUser(user.Username, "user_signup", map[string]interface{}{
		"email": user.Email,
		"role":  user.RoleName,
	})

	return c.Status(fiber.StatusCreated).JSON(tokenResponse{Token: token, User: &user})
}

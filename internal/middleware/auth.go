package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/utils"
)

const claimsKey = "authClaims"

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "http://localhost:4200,http://127.0.0.1:4200",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

// RequireAuth validates the bearer token in strict mode: any missing,
// malformed or invalid credential rejects the request. On success the decoded
// claims are attached to the request context.
func RequireAuth(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.TrimSpace(authHeader) == "" {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return httperr.Unauthorized("Missing token.")
	}

	tokenString, ok := bearerToken(authHeader)
	if !ok {
		logger.Warn("jwt_malformed_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return httperr.Unauthorized("Malformed token.")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return httperr.Unauthorized("Invalid or expired token.")
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// OptionalAuth validates the bearer token in lenient mode: a missing header or
// an invalid token lets the request proceed as anonymous. A header that is
// present but not a Bearer credential is still rejected.
func OptionalAuth(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.TrimSpace(authHeader) == "" {
		return c.Next()
	}

	tokenString, ok := bearerToken(authHeader)
	if !ok {
		return httperr.Unauthorized("Malformed token.")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		// Invalid token means anonymous here, not an error.
		return c.Next()
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// RequireRole rejects callers whose role is not on the allow-list.
// Must run after an authentication middleware.
func RequireRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := CurrentClaims(c)
		if claims == nil {
			return httperr.Unauthorized("Unauthenticated.")
		}

		for _, role := range allowedRoles {
			if claims.Role == role {
				return c.Next()
			}
		}

		logger.WarnWithUser(claims.Username, "role_denied", map[string]interface{}{
			"path": c.Path(),
			"role": claims.Role,
		})
		return httperr.Forbidden("Access denied.")
	}
}

// CurrentClaims returns the claims attached by RequireAuth/OptionalAuth,
// or nil for anonymous requests.
func CurrentClaims(c *fiber.Ctx) *utils.Claims {
	value := c.Locals(claimsKey)
	if value == nil {
		return nil
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/geosight/backend/internal/models"
)

func TestSignup(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("creates a user with the default role", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "Sup3r$ecret",
		}, nil)
		assertStatus(t, resp, fiber.StatusCreated)

		body := decodeJSONMap(t, resp)
		if body["token"] == "" || body["token"] == nil {
			t.Fatal("expected a token in the response")
		}

		user, ok := body["user"].(map[string]any)
		if !ok {
			t.Fatalf("expected a user object, got %v", body["user"])
		}
		if user["username"] != "alice" {
			t.Fatalf("expected username alice, got %v", user["username"])
		}
		if user["role"] != models.RoleUser {
			t.Fatalf("expected role %s, got %v", models.RoleUser, user["role"])
		}
		if _, leaked := user["password"]; leaked {
			t.Fatal("password must never appear in responses")
		}
		if _, leaked := user["passwordHash"]; leaked {
			t.Fatal("password hash must never appear in responses")
		}
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "alice",
			"email":    "alice2@example.com",
			"password": "Sup3r$ecret",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusConflict, "User already exists.")
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "Sup3r$ecret",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusBadRequest, "Email already in use.")
	})

	t.Run("rejects an invalid email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "bob",
			"email":    "not an email",
			"password": "Sup3r$ecret",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusBadRequest, "Email not valid.")
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "bob",
			"email":    "bob@example.com",
			"password": "weakpassword",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusBadRequest, "Password not valid. It must contain an uppercase character, a number and a special character.")
	})

	t.Run("strips markup from the username", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/signup", map[string]any{
			"username": "<script>carol</script>",
			"email":    "carol@example.com",
			"password": "Sup3r$ecret",
		}, nil)
		assertStatus(t, resp, fiber.StatusCreated)

		body := decodeJSONMap(t, resp)
		user := body["user"].(map[string]any)
		if user["username"] != "carol" {
			t.Fatalf("expected sanitized username carol, got %v", user["username"])
		}
	})
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env.db, "alice", "alice@example.com", "Sup3r$ecret", models.RoleUser)

	t.Run("returns a token for valid credentials", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/auth", map[string]any{
			"username": "alice",
			"password": "Sup3r$ecret",
		}, nil)
		assertStatus(t, resp, fiber.StatusOK)

		body := decodeJSONMap(t, resp)
		token, _ := body["token"].(string)
		if token == "" {
			t.Fatal("expected a token in the response")
		}

		// The returned token must be accepted by a protected endpoint.
		check := performRequest(t, env.app, fiber.MethodGet, "/users/alice", nil, authHeaders(token))
		assertStatus(t, check, fiber.StatusOK)
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/auth", map[string]any{
			"username": "alice",
			"password": "Wr0ng$ecret",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Invalid credentials.")
	})

	t.Run("rejects an unknown user with the same error", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, fiber.MethodPost, "/auth", map[string]any{
			"username": "nobody",
			"password": "Sup3r$ecret",
		}, nil)
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Invalid credentials.")
	})
}

func TestAuthMiddleware(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env.db, "alice", "alice@example.com", "Sup3r$ecret", models.RoleUser)

	t.Run("missing token on a protected route", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/users/alice", nil, nil)
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Missing token.")
	})

	t.Run("wrong scheme on a protected route", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/users/alice", nil, map[string]string{
			"Authorization": "Basic abc123",
		})
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Malformed token.")
	})

	t.Run("garbage token on a protected route", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/users/alice", nil, authHeaders("garbage"))
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Invalid or expired token.")
	})

	t.Run("lenient route treats a missing token as anonymous", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/comments/?sightingId=1", nil, nil)
		assertStatus(t, resp, fiber.StatusOK)
	})

	t.Run("lenient route treats an invalid token as anonymous", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/comments/?sightingId=1", nil, authHeaders("garbage"))
		assertStatus(t, resp, fiber.StatusOK)
	})

	t.Run("lenient route still rejects a wrong scheme", func(t *testing.T) {
		resp := performRequest(t, env.app, fiber.MethodGet, "/comments/?sightingId=1", nil, map[string]string{
			"Authorization": "Basic abc123",
		})
		assertHTTPError(t, resp, fiber.StatusUnauthorized, "Malformed token.")
	})
}

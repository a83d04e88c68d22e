package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/database"
	"github.com/geosight/backend/internal/middleware"
	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/internal/storage"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/utils"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

// setupTestEnv boots the full application over an in-memory database and a
// temporary photo directory, mirroring the production wiring.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 3600)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Prepare(db); err != nil {
		t.Fatalf("failed preparing schema: %v", err)
	}

	photoStore, err := storage.NewLocalStore(t.TempDir(), "http://localhost:3000")
	if err != nil {
		t.Fatalf("failed creating local photo store: %v", err)
	}

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	userRolesHandler := NewUserRolesHandler(db)
	sightingsHandler := NewSightingsHandler(db, photoStore)
	commentsHandler := NewCommentsHandler(db)

	own := middleware.NewOwnership(db)

	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/auth", authHandler.Login)
	app.Post("/signup", authHandler.Signup)

	userRoutes := app.Group("/users")
	userRoutes.Get("/", middleware.RequireAuth, middleware.RequireRole(models.RoleAdmin), usersHandler.List)
	userRoutes.Get("/:username", middleware.RequireAuth, usersHandler.Get)
	userRoutes.Put("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Replace)
	userRoutes.Patch("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Update)
	userRoutes.Delete("/:username", middleware.RequireAuth, own.CanModifyUser, usersHandler.Delete)

	roleRoutes := app.Group("/user-roles", middleware.RequireAuth, middleware.RequireRole(models.RoleAdmin))
	roleRoutes.Get("/", userRolesHandler.List)
	roleRoutes.Put("/:roleName", userRolesHandler.Create)
	roleRoutes.Get("/:roleName", userRolesHandler.Get)
	roleRoutes.Patch("/:roleName", userRolesHandler.Update)
	roleRoutes.Delete("/:roleName", userRolesHandler.Delete)

	sightingRoutes := app.Group("/sightings")
	sightingRoutes.Get("/", sightingsHandler.List)
	sightingRoutes.Get("/:id", sightingsHandler.Get)
	sightingRoutes.Post("/", middleware.RequireAuth, sightingsHandler.Create)
	sightingRoutes.Patch("/:id", middleware.RequireAuth, own.CanModifySighting, sightingsHandler.Update)
	sightingRoutes.Delete("/:id", middleware.RequireAuth, own.CanModifySighting, sightingsHandler.Delete)

	commentRoutes := app.Group("/comments")
	commentRoutes.Get("/", middleware.OptionalAuth, commentsHandler.List)
	commentRoutes.Get("/:id", commentsHandler.Get)
	commentRoutes.Post("/", middleware.RequireAuth, commentsHandler.Create)
	commentRoutes.Patch("/:id", middleware.RequireAuth, own.CanModifyComment, commentsHandler.Update)
	commentRoutes.Delete("/:id", middleware.RequireAuth, own.CanModifyComment, commentsHandler.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return httperr.NotFound("Not found.")
	})

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, username, email, password, role string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		RoleName:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user.Username, user.RoleName)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestSighting(t *testing.T, db *gorm.DB, username, title string) *models.Sighting {
	t.Helper()

	sighting := &models.Sighting{
		PhotoURL:  "http://localhost:3000/uploads/sightings/test.jpg",
		Title:     title,
		Latitude:  47.3769,
		Longitude: 8.5417,
		Username:  username,
	}
	if err := db.Create(sighting).Error; err != nil {
		t.Fatalf("failed creating test sighting: %v", err)
	}
	return sighting
}

func createTestComment(t *testing.T, db *gorm.DB, username string, sightingID uint, content string) *models.Comment {
	t.Helper()

	comment := &models.Comment{
		Content:    content,
		Username:   username,
		SightingID: sightingID,
	}
	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("failed creating test comment: %v", err)
	}
	return comment
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performMultipartRequest sends a multipart form carrying text fields plus one
// photo part with an explicit content type.
func performMultipartRequest(t *testing.T, app *fiber.App, method, path string, fields map[string]string, photoName, photoType string, photo []byte, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing form field %q: %v", key, err)
		}
	}

	if photo != nil {
		partHeader := textproto.MIMEHeader{}
		partHeader.Set("Content-Disposition", `form-data; name="photo"; filename="`+photoName+`"`)
		partHeader.Set("Content-Type", photoType)
		part, err := writer.CreatePart(partHeader)
		if err != nil {
			t.Fatalf("failed creating photo part: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("failed writing photo bytes: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, method, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// assertHTTPError checks the status code and the error envelope body.
func assertHTTPError(t *testing.T, resp *http.Response, expectedStatus int, expectedDescription string) {
	t.Helper()

	assertStatus(t, resp, expectedStatus)

	body := decodeJSONMap(t, resp)
	if code, ok := body["code"].(float64); !ok || int(code) != expectedStatus {
		t.Fatalf("expected envelope code %d, got %v", expectedStatus, body["code"])
	}
	if description, _ := body["description"].(string); description != expectedDescription {
		t.Fatalf("expected description %q, got %q", expectedDescription, body["description"])
	}
}

package handlers

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/middleware"
	"github.com/geosight/backend/internal/models"
	"github.com/geosight/backend/internal/storage"
	"github.com/geosight/backend/pkg/httperr"
	"github.com/geosight/backend/pkg/logger"
	"github.com/geosight/backend/pkg/query"
)

type SightingsHandler struct {
	DB     *gorm.DB
	Photos storage.Store
}

func NewSightingsHandler(db *gorm.DB, photos storage.Store) *SightingsHandler {
	return &SightingsHandler{DB: db, Photos: photos}
}

var sightingFilters = map[string]query.FilterMapping{
	"username": {Type: query.TypeString, Column: "username", AllowMultiValue: true},
	"title":    {Type: query.TypeString, Column: "title"},
	"address":  {Type: query.TypeString, Column: "address"},
}

func (h *SightingsHandler) List(c *fiber.Ctx) error {
	params := query.Parse(c)

	scope, err := query.Scope(params.Filters, sightingFilters)
	if err != nil {
		return err
	}

	page, err := query.FindAllPaginated[models.Sighting](
		h.DB.Model(&models.Sighting{}).Scopes(scope),
		params.Pagination,
	)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *SightingsHandler) Get(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Sighting not found.")
	}

	var sighting models.Sighting
	if err := h.DB.First(&sighting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Sighting not found.")
		}
		return err
	}

	return c.Status(fiber.StatusOK).JSON(sighting)
}

type sightingRequest struct {
	Title       string  `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Latitude    float64 `json:"latitude" form:"latitude"`
	Longitude   float64 `json:"longitude" form:"longitude"`
	Address     *string `json:"address" form:"address"`
	PhotoURL    string  `json:"photoUrl" form:"photoUrl"`
}

// Create stores a new sighting owned by the caller. The photo arrives either
// as a multipart file upload or as an already-hosted photoUrl.
func (h *SightingsHandler) Create(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)

	var req sightingRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	req.Title = sanitize(req.Title)
	req.Description = sanitizePtr(req.Description)
	req.Address = sanitizePtr(req.Address)

	if req.Title == "" {
		return httperr.BadRequest("Title is required.")
	}
	if !isLatitudeValid(req.Latitude) {
		return httperr.BadRequest("Latitude must be between -90 and 90.")
	}
	if !isLongitudeValid(req.Longitude) {
		return httperr.BadRequest("Longitude must be between -180 and 180.")
	}

	photoURL := strings.TrimSpace(req.PhotoURL)
	if file, err := c.FormFile(storage.PhotoFieldName); err == nil {
		photoURL, err = h.savePhoto(c, file)
		if err != nil {
			return err
		}
	}
	if photoURL == "" {
		return httperr.BadRequest("A photo file or a photoUrl is required.")
	}

	sighting := models.Sighting{
		PhotoURL:    photoURL,
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		Username:    claims.Username,
	}

	if err := h.DB.Create(&sighting).Error; err != nil {
		return err
	}

	logger.InfoWithUser(claims.Username, "sighting_created", map[string]interface{}{
		"sighting_id": sighting.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(sighting)
}

type updateSightingRequest struct {
	Title       *string  `json:"title" form:"title"`
	Description *string  `json:"description" form:"description"`
	Latitude    *float64 `json:"latitude" form:"latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude"`
	Address     *string  `json:"address" form:"address"`
	PhotoURL    *string  `json:"photoUrl" form:"photoUrl"`
}

// Update applies a partial update. A new photo upload replaces the stored one.
func (h *SightingsHandler) Update(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Sighting not found.")
	}

	var req updateSightingRequest
	if err := c.BodyParser(&req); err != nil {
		return httperr.BadRequest("Invalid request body.")
	}

	var sighting models.Sighting
	if err := h.DB.First(&sighting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Sighting not found.")
		}
		return err
	}

	updates := map[string]interface{}{}

	if req.Title != nil {
		title := sanitize(*req.Title)
		if title == "" {
			return httperr.BadRequest("Title is required.")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = sanitizePtr(req.Description)
	}
	if req.Latitude != nil {
		if !isLatitudeValid(*req.Latitude) {
			return httperr.BadRequest("Latitude must be between -90 and 90.")
		}
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		if !isLongitudeValid(*req.Longitude) {
			return httperr.BadRequest("Longitude must be between -180 and 180.")
		}
		updates["longitude"] = *req.Longitude
	}
	if req.Address != nil {
		updates["address"] = sanitizePtr(req.Address)
	}
	if req.PhotoURL != nil && strings.TrimSpace(*req.PhotoURL) != "" {
		updates["photo_url"] = strings.TrimSpace(*req.PhotoURL)
	}

	if file, err := c.FormFile(storage.PhotoFieldName); err == nil {
		photoURL, err := h.savePhoto(c, file)
		if err != nil {
			return err
		}
		updates["photo_url"] = photoURL
	}

	if len(updates) == 0 {
		return httperr.BadRequest("No valid fields to update.")
	}

	if err := h.DB.Model(&sighting).Updates(updates).Error; err != nil {
		return err
	}

	if err := h.DB.First(&sighting, id).Error; err != nil {
		return err
	}

	logger.Info("sighting_updated", map[string]interface{}{"sighting_id": sighting.ID})

	return c.Status(fiber.StatusOK).JSON(sighting)
}

// Delete removes a sighting and its comments. The stored photo is removed on
// a best-effort basis; a failing cleanup does not fail the request.
func (h *SightingsHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c.Params("id"))
	if !ok {
		return httperr.NotFound("Sighting not found.")
	}

	var sighting models.Sighting
	if err := h.DB.First(&sighting, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound("Sighting not found.")
		}
		return err
	}

	if err := h.DB.Where("fk_sighting_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := h.DB.Delete(&sighting).Error; err != nil {
		return err
	}

	if idx := strings.LastIndex(sighting.PhotoURL, "/"); idx >= 0 {
		filename := sighting.PhotoURL[idx+1:]
		if err := h.Photos.Remove(c.Context(), filename); err != nil {
			logger.Warn("photo_cleanup_failed", map[string]interface{}{
				"sighting_id": id,
				"filename":    filename,
				"error":       err.Error(),
			})
		}
	}

	logger.Info("sighting_deleted", map[string]interface{}{"sighting_id": id})

	return c.SendStatus(fiber.StatusNoContent)
}

// savePhoto validates the uploaded file and writes it through the photo store.
func (h *SightingsHandler) savePhoto(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if file.Size > storage.MaxPhotoSizeBytes {
		return "", httperr.PayloadTooLarge("Photo exceeds the 5 MB size limit.")
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if !storage.AcceptedPhotoTypes[contentType] {
		return "", httperr.UnsupportedMediaType("Only JPEG, PNG and WEBP images are allowed.")
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := storage.PhotoFilename(file.Filename)
	return h.Photos.Save(c.Context(), filename, src, file.Size, contentType)
}

package observation

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"sighting-engine/core/logger"
	"sighting-engine/core/middleware/auth"
	"sighting-engine/feature/media"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	msgCreated   = "Observation created successfully."
	msgUpdated   = "Observation updated successfully."
	msgUnchanged = "No changes detected to update."
)

// MutationResponse is returned by successful create and edit requests.
type MutationResponse struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	ObservationID uint     `json:"observation_id"`
	SourceID      int64    `json:"source_id"`
	UpdatedFields []string `json:"updated_fields,omitempty"`
}

// ErrorResponse is returned by failed requests.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// Handler handles HTTP requests for observations.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the observation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/observations")
	group.Post("/", h.HandleCreate)
	group.Patch("/:source_id", h.HandleEdit)
}

// HandleCreate submits a new observation.
// @Summary Create Observation
// @Description Submit a sighting. Complete taxonomy links a species (created on first use); incomplete taxonomy is kept as a raw snapshot and the observation stays pending.
// @Tags observations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param latitude formData number true "Latitude"
// @Param longitude formData number true "Longitude"
// @Param date formData string true "Observation time (e.g. 2025-06-22T20:45:00)"
// @Param quantity formData integer false "Individuals seen (default 1)"
// @Param additional_details formData string false "Free text"
// @Param family formData string true "Family"
// @Param genus formData string false "Genus (default All)"
// @Param species formData string false "Species (default All)"
// @Param common_name formData string false "Common name for a new species"
// @Param location_name formData string false "Display name of the place"
// @Param media_files formData file false "Photo or audio attachments"
// @Success 201 {object} MutationResponse
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal Server Error"
// @Router /api/observations [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	l := logger.WithRequest(h.logger, c)
	caller, ok := auth.CallerFrom(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Authentication credentials were not provided."})
	}

	sub, err := readSubmission(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Malformed form data."})
	}

	res, err := h.service.Create(c.UserContext(), caller, sub)
	if err != nil {
		return writeError(c, l, err)
	}
	return c.Status(fiber.StatusCreated).JSON(MutationResponse{
		Success:       true,
		Message:       msgCreated,
		ObservationID: res.ObservationID,
		SourceID:      res.SourceID,
	})
}

// HandleEdit applies a partial update to an observation.
// @Summary Edit Observation
// @Description Update the supplied fields of an observation owned by the caller (moderators may edit any). Identical values are not written.
// @Tags observations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param source_id path integer true "Public source id"
// @Param existing_photos[] formData []string false "Photo URLs to keep" collectionFormat(multi)
// @Param existing_audio[] formData []string false "Audio URLs to keep" collectionFormat(multi)
// @Param media_files formData file false "New photo or audio attachments"
// @Success 200 {object} MutationResponse
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Failure 500 {object} ErrorResponse "Internal Server Error"
// @Router /api/observations/{source_id} [patch]
func (h *Handler) HandleEdit(c *fiber.Ctx) error {
	l := logger.WithRequest(h.logger, c)
	caller, ok := auth.CallerFrom(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Authentication credentials were not provided."})
	}

	sourceID, err := strconv.ParseInt(c.Params("source_id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Observation not found."})
	}

	sub, err := readSubmission(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Malformed form data."})
	}

	res, err := h.service.Edit(c.UserContext(), caller, sourceID, sub)
	if err != nil {
		return writeError(c, l, err)
	}

	resp := MutationResponse{
		Success:       true,
		Message:       msgUnchanged,
		ObservationID: res.ObservationID,
		SourceID:      res.SourceID,
	}
	if res.Outcome == OutcomeUpdated {
		resp.Message = msgUpdated
		for _, ch := range res.Changes {
			resp.UpdatedFields = append(resp.UpdatedFields, ch.Column)
		}
	}
	return c.JSON(resp)
}

func writeError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch KindOf(err) {
	case KindValidation:
		resp := ErrorResponse{Error: "Validation failed."}
		var e *Error
		if errors.As(err, &e) {
			resp.Fields = e.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "Observation not found."})
	case KindForbidden:
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "You do not have permission to edit this observation."})
	}
	l.Error("Observation request failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Internal server error."})
}

// readSubmission collects the form fields of a multipart or urlencoded body.
func readSubmission(c *fiber.Ctx) (Submission, error) {
	values := map[string][]string{}
	var files []*multipart.FileHeader

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return Submission{}, err
		}
		values = form.Value
		files = form.File["media_files"]
	} else {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			values[string(k)] = append(values[string(k)], string(v))
		})
	}

	sub := Submission{
		Latitude:          field(values, "latitude"),
		Longitude:         field(values, "longitude"),
		Date:              field(values, "date"),
		Quantity:          field(values, "quantity"),
		AdditionalDetails: field(values, "additional_details"),
		Family:            field(values, "family"),
		Genus:             field(values, "genus"),
		Species:           field(values, "species"),
		CommonName:        field(values, "common_name"),
		LocationName:      field(values, "location_name"),
		KeepPhotos:        keepList(values, "existing_photos"),
		KeepAudio:         keepList(values, "existing_audio"),
	}
	for _, fh := range files {
		sub.Uploads = append(sub.Uploads, media.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return sub, nil
}

func field(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

// keepList accepts both "name" and "name[]" keys. Absent keys mean the list
// was not sent.
func keepList(values map[string][]string, key string) media.KeepList {
	plain, hasPlain := values[key]
	bracket, hasBracket := values[key+"[]"]
	if !hasPlain && !hasBracket {
		return media.KeepList{}
	}
	return media.Keep(append(plain, bracket...)...)
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
	"github.com/noah-isme/students-gateway/internal/service"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
	"github.com/noah-isme/students-gateway/pkg/response"
)

// Bulk payloads larger than this are refused before parsing.
const maxImportPayload = 2 << 20

const previewSize = 5

type importService interface {
	ParseImport(raw string) service.BulkParseResult
	Import(ctx context.Context, identity models.Identity, records []models.Student) service.ImportResult
}

// ImportHandler exposes the bulk import endpoints.
type ImportHandler struct {
	imports importService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports importService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Sample godoc
// @Summary Download sample bulk payload
// @Tags Import
// @Produce json
// @Success 200 {file} file
// @Security BearerAuth
// @Router /students/import/sample [get]
func (h *ImportHandler) Sample(c *gin.Context) {
	response.Attachment(c, service.SampleImportFilename, "application/json", service.SampleImportPayload())
}

// Preview godoc
// @Summary Validate a pasted bulk payload
// @Description The body is the raw pasted text. Validation problems are reported in the payload, not as an HTTP error.
// @Tags Import
// @Accept plain
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Security BearerAuth
// @Router /students/import/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	if _, ok := identityFromContext(c); !ok {
		return
	}
	raw, ok := readPayload(c)
	if !ok {
		return
	}
	result := h.imports.ParseImport(raw)

	preview := dto.ImportPreview{
		Kind:        string(result.Kind),
		Errors:      result.Errors,
		Summary:     result.Summary,
		Preview:     result.Records,
		TotalCount:  len(result.Records),
		CanImport:   result.OK() && len(result.Records) > 0,
		PreviewSize: previewSize,
	}
	if preview.Errors == nil {
		preview.Errors = []string{}
	}
	if len(preview.Preview) > previewSize {
		preview.Preview = preview.Preview[:previewSize]
	}
	if preview.Preview == nil {
		preview.Preview = []models.Student{}
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// Import godoc
// @Summary Import a pasted bulk payload
// @Description Rejects the whole payload when any record is invalid. Otherwise records are submitted one by one and failures are counted.
// @Tags Import
// @Accept plain
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	raw, ok := readPayload(c)
	if !ok {
		return
	}
	parsed := h.imports.ParseImport(raw)
	if err := parsed.Err(); err != nil {
		response.Error(c, err)
		return
	}

	result := h.imports.Import(c.Request.Context(), identity, parsed.Records)
	response.JSON(c, http.StatusOK, dto.ImportResponse{
		Success:      result.Success,
		Message:      result.Message,
		SuccessCount: result.SuccessCount,
		FailCount:    result.FailCount,
	}, nil)
}

func readPayload(c *gin.Context) (string, bool) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportPayload)
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large"))
			return "", false
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, "could not read payload"))
		return "", false
	}
	return string(raw), true
}

package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
	"github.com/noah-isme/students-gateway/internal/service"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
	"github.com/noah-isme/students-gateway/pkg/response"
)

type studentService interface {
	List(ctx context.Context, identity models.Identity, requested models.StudentViewState, toggle string) (*models.StudentListView, models.StudentViewState, error)
	ResetView(ctx context.Context, identity models.Identity) models.StudentViewState
	Options(ctx context.Context, identity models.Identity) (*models.StudentFilterOptions, error)
	Get(ctx context.Context, identity models.Identity, id string) (*models.Student, error)
	Create(ctx context.Context, identity models.Identity, input dto.StudentInput) (*models.Student, error)
	Update(ctx context.Context, identity models.Identity, id string, input dto.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, identity models.Identity, id string) (*models.Student, error)
	Export(ctx context.Context, identity models.Identity, filter models.StudentFilter, order models.StudentSort, format string) (*service.ExportFile, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Description Filters, sorts and paginates the caller's students. Changing filters or sort returns to page 1.
// @Tags Students
// @Produce json
// @Param status query string false "Exact status"
// @Param year query int false "Exact year"
// @Param course query string false "Exact course"
// @Param search query string false "Case-insensitive name or email substring"
// @Param sort query string false "Sort key" Enums(name, email, age, course, year, enrollmentDate, status)
// @Param order query string false "Sort direction" Enums(asc, desc)
// @Param toggle query string false "Sort key to toggle against the stored sort; overrides sort and order"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	filter, order, err := parseViewQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requested := models.StudentViewState{Filter: filter, Sort: order, Page: 1}
	if raw := c.Query("page"); raw != "" {
		page, convErr := strconv.Atoi(raw)
		if convErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "page must be a number"))
			return
		}
		requested.Page = page
	}

	view, state, err := h.students.List(c.Request.Context(), identity, requested, c.Query("toggle"))
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{
		Page:       view.Page,
		PageSize:   view.PageSize,
		TotalCount: view.TotalFiltered,
		TotalPages: view.TotalPages,
	}
	response.JSON(c, http.StatusOK, view.Students, pagination, map[string]interface{}{"state": state})
}

// Options godoc
// @Summary Filter options
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/options [get]
func (h *StudentHandler) Options(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	opts, err := h.students.Options(c.Request.Context(), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts, nil)
}

// ResetView godoc
// @Summary Reset filters and sort
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/view/reset [post]
func (h *StudentHandler) ResetView(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	state := h.students.ResetView(c.Request.Context(), identity)
	response.JSON(c, http.StatusOK, dto.ViewResetResponse{State: state}, nil)
}

// Export godoc
// @Summary Export students
// @Description Renders every filtered and sorted student, without pagination.
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format" Enums(csv, pdf)
// @Param status query string false "Exact status"
// @Param year query int false "Exact year"
// @Param course query string false "Exact course"
// @Param search query string false "Name or email substring"
// @Param sort query string false "Sort key"
// @Param order query string false "Sort direction"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /students/export [get]
func (h *StudentHandler) Export(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	filter, order, err := parseViewQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.students.Export(c.Request.Context(), identity, filter, order, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StudentInput true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	input, ok := bindStudentInput(c)
	if !ok {
		return
	}
	student, err := h.students.Create(c.Request.Context(), identity, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Replace student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentInput true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	input, ok := bindStudentInput(c)
	if !ok {
		return
	}
	student, err := h.students.Update(c.Request.Context(), identity, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		return
	}
	student, err := h.students.Delete(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// bindStudentInput decodes the form payload. Field rules are applied by the service, so
// only syntactically broken JSON is rejected here.
func bindStudentInput(c *gin.Context) (dto.StudentInput, bool) {
	var input dto.StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, appErrors.ErrMalformedPayload.Message))
		return input, false
	}
	return input, true
}

func parseViewQuery(c *gin.Context) (models.StudentFilter, models.StudentSort, error) {
	filter := models.StudentFilter{
		Status: c.Query("status"),
		Course: c.Query("course"),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, models.StudentSort{}, appErrors.Clone(appErrors.ErrValidation, "year must be a whole number")
		}
		filter.Year = &year
	}

	order := models.StudentSort{Key: c.Query("sort"), Direction: models.SortAsc}
	switch strings.ToLower(c.Query("order")) {
	case "", string(models.SortAsc):
	case string(models.SortDesc):
		order.Direction = models.SortDesc
	default:
		return filter, order, appErrors.Clone(appErrors.ErrValidation, "order must be asc or desc")
	}
	return filter, order, nil
}

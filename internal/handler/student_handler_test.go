package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/middleware"
	"github.com/noah-isme/students-gateway/internal/models"
	"github.com/noah-isme/students-gateway/internal/service"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
)

type fakeStudentSrv struct {
	view        *models.StudentListView
	state       models.StudentViewState
	err         error
	student     *models.Student
	export      *service.ExportFile
	lastRequest models.StudentViewState
	lastFilter  models.StudentFilter
	lastSort    models.StudentSort
	lastFormat  string
	lastInput   dto.StudentInput
	lastID      string
	lastToggle  string
	lastUser    models.Identity
}

func (f *fakeStudentSrv) List(_ context.Context, identity models.Identity, requested models.StudentViewState, toggle string) (*models.StudentListView, models.StudentViewState, error) {
	f.lastUser = identity
	f.lastToggle = toggle
	f.lastRequest = requested
	return f.view, f.state, f.err
}

func (f *fakeStudentSrv) ResetView(_ context.Context, identity models.Identity) models.StudentViewState {
	f.lastUser = identity
	return service.ResetViewState()
}

func (f *fakeStudentSrv) Options(context.Context, models.Identity) (*models.StudentFilterOptions, error) {
	return &models.StudentFilterOptions{Statuses: models.StudentStatuses, Years: []int{2024}, Courses: []string{"Art"}}, f.err
}

func (f *fakeStudentSrv) Get(_ context.Context, _ models.Identity, id string) (*models.Student, error) {
	f.lastID = id
	return f.student, f.err
}

func (f *fakeStudentSrv) Create(_ context.Context, identity models.Identity, input dto.StudentInput) (*models.Student, error) {
	f.lastUser = identity
	f.lastInput = input
	return f.student, f.err
}

func (f *fakeStudentSrv) Update(_ context.Context, _ models.Identity, id string, input dto.StudentInput) (*models.Student, error) {
	f.lastID = id
	f.lastInput = input
	return f.student, f.err
}

func (f *fakeStudentSrv) Delete(_ context.Context, _ models.Identity, id string) (*models.Student, error) {
	f.lastID = id
	return f.student, f.err
}

func (f *fakeStudentSrv) Export(_ context.Context, _ models.Identity, filter models.StudentFilter, order models.StudentSort, format string) (*service.ExportFile, error) {
	f.lastFilter = filter
	f.lastSort = order
	f.lastFormat = format
	return f.export, f.err
}

type studentEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
	Error      *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newStudentContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Set(middleware.ContextUserKey, models.Identity{ID: "owner-1", Authenticated: true})
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) studentEnvelope {
	t.Helper()
	var env studentEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestStudentHandlerListParsesQuery(t *testing.T) {
	srv := &fakeStudentSrv{
		view:  &models.StudentListView{Students: []models.Student{{ID: "1", Name: "Alice"}}, Page: 2, PageSize: 6, TotalFiltered: 7, TotalPages: 2},
		state: models.StudentViewState{Page: 2},
	}
	h := NewStudentHandler(srv)
	c, rec := newStudentContext(http.MethodGet, "/students?status=Enrolled&year=2024&course=Math&search=%20al%20&sort=age&order=DESC&page=2", "")

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", srv.lastUser.ID)
	assert.Equal(t, "Enrolled", srv.lastRequest.Filter.Status)
	require.NotNil(t, srv.lastRequest.Filter.Year)
	assert.Equal(t, 2024, *srv.lastRequest.Filter.Year)
	assert.Equal(t, "al", srv.lastRequest.Filter.Search)
	assert.Equal(t, models.StudentSort{Key: "age", Direction: models.SortDesc}, srv.lastRequest.Sort)
	assert.Equal(t, 2, srv.lastRequest.Page)
	assert.Empty(t, srv.lastToggle)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 7, env.Pagination.TotalCount)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.Contains(t, env.Meta, "state")
}

func TestStudentHandlerListRejectsBadQuery(t *testing.T) {
	h := NewStudentHandler(&fakeStudentSrv{})
	for _, target := range []string{"/students?year=20x4", "/students?order=up", "/students?page=two"} {
		c, rec := newStudentContext(http.MethodGet, target, "")
		h.List(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStudentHandlerRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students", nil)

	NewStudentHandler(&fakeStudentSrv{}).List(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentHandlerCreateValidationError(t *testing.T) {
	fields := service.FieldErrors{"name": "Name is required"}
	srv := &fakeStudentSrv{err: appErrors.WithDetails(appErrors.ErrValidation, fields)}
	h := NewStudentHandler(srv)
	c, rec := newStudentContext(http.MethodPost, "/students", `{"name":"","age":20,"year":"2024"}`)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.Text("20"), srv.lastInput.Age)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.JSONEq(t, `{"name":"Name is required"}`, string(env.Error.Details))
}

func TestStudentHandlerCreateMalformed(t *testing.T) {
	h := NewStudentHandler(&fakeStudentSrv{})
	c, rec := newStudentContext(http.MethodPost, "/students", `{"name":`)
	h.Create(c)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MALFORMED_PAYLOAD", env.Error.Code)
}

func TestStudentHandlerCreateSuccess(t *testing.T) {
	srv := &fakeStudentSrv{student: &models.Student{ID: "new", Name: "John Doe", UserID: "owner-1"}}
	h := NewStudentHandler(srv)
	c, rec := newStudentContext(http.MethodPost, "/students", `{"name":"John Doe"}`)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"owner-1"`)
}

func TestStudentHandlerUpdateAndDelete(t *testing.T) {
	srv := &fakeStudentSrv{student: &models.Student{ID: "9"}}
	h := NewStudentHandler(srv)

	c, rec := newStudentContext(http.MethodPut, "/students/9", `{"name":"X"}`)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	h.Update(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", srv.lastID)

	srv.err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
	c, rec = newStudentContext(http.MethodDelete, "/students/10", "")
	c.Params = gin.Params{{Key: "id", Value: "10"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "10", srv.lastID)
}

func TestStudentHandlerGetPersistenceError(t *testing.T) {
	srv := &fakeStudentSrv{err: appErrors.Clone(appErrors.ErrPersistence, "Failed to fetch student details")}
	c, rec := newStudentContext(http.MethodGet, "/students/1", "")
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	NewStudentHandler(srv).Get(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch student details")
}

func TestStudentHandlerExport(t *testing.T) {
	srv := &fakeStudentSrv{export: &service.ExportFile{Filename: "students.csv", ContentType: "text/csv", Body: []byte("Name\n")}}
	c, rec := newStudentContext(http.MethodGet, "/students/export?course=Art&sort=name", "")

	NewStudentHandler(srv).Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.lastFormat)
	assert.Equal(t, "Art", srv.lastFilter.Course)
	assert.Equal(t, "name", srv.lastSort.Key)
	assert.Equal(t, `attachment; filename="students.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Name\n", rec.Body.String())
}

func TestStudentHandlerResetViewAndOptions(t *testing.T) {
	srv := &fakeStudentSrv{}
	h := NewStudentHandler(srv)

	c, rec := newStudentContext(http.MethodPost, "/students/view/reset", "")
	h.ResetView(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":1`)

	c, rec = newStudentContext(http.MethodGet, "/students/options", "")
	h.Options(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"courses":["Art"]`)
}

func TestStudentHandlerListForwardsToggle(t *testing.T) {
	srv := &fakeStudentSrv{view: &models.StudentListView{Page: 1, PageSize: 6}}
	c, rec := newStudentContext(http.MethodGet, "/students?toggle=email", "")

	NewStudentHandler(srv).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "email", srv.lastToggle)
}

func TestStudentHandlerCreateRejectsUnreadableBody(t *testing.T) {
	h := NewStudentHandler(&fakeStudentSrv{})
	for _, body := range []string{"", "name=John", `["x"]`} {
		c, rec := newStudentContext(http.MethodPost, "/students", body)
		c.Request.Header.Set("Content-Type", "application/json")
		h.Create(c)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "MALFORMED_PAYLOAD", decodeEnvelope(t, rec).Error.Code, body)
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
	"github.com/noah-isme/students-gateway/pkg/export"
)

// Generic messages surfaced when the persistence collaborator fails.
const (
	msgFetchFailed  = "Failed to fetch students"
	msgLoadFailed   = "Failed to fetch student details"
	msgAddFailed    = "Failed to add student. Please try again."
	msgUpdateFailed = "Failed to update student. Please try again."
	msgDeleteFailed = "Failed to delete student. Please try again."
)

// StudentStore is the persistence collaborator holding student records.
type StudentStore interface {
	ListRecords(ctx context.Context, owner string) ([]models.Student, error)
	CreateRecord(ctx context.Context, student models.Student) (*models.Student, error)
	GetRecord(ctx context.Context, id string) (*models.Student, error)
	UpdateRecord(ctx context.Context, id string, student models.Student) (*models.Student, error)
	DeleteRecord(ctx context.Context, id string) (*models.Student, error)
}

type datasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// StudentServiceConfig tunes the student use-cases.
type StudentServiceConfig struct {
	PageSize int
	// ScopeAtCollaborator asks the collaborator to return only the caller's records.
	// Records are filtered by owner locally either way.
	ScopeAtCollaborator bool
	SingleRules         FieldRules
	SnapshotTTL         time.Duration
	ViewStateTTL        time.Duration
}

// ExportFile is a rendered export ready to be downloaded.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// StudentService handles the student list, single-record and bulk import use-cases.
type StudentService struct {
	store     StudentStore
	validator *StudentValidator
	parser    *BulkParser
	importer  *ImportService
	cache     *CacheService
	metrics   *MetricsService
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs the student service.
func NewStudentService(store StudentStore, validator *StudentValidator, importer *ImportService, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validator == nil {
		validator = NewStudentValidator(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if importer == nil {
		importer = NewImportService(metrics, logger)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	csv := export.NewCSVExporter()
	pdf := &export.PDFExporter{Widths: map[string]float64{"Age": 12, "Year": 14, "Status": 22}}
	return &StudentService{
		store:     store,
		validator: validator,
		parser:    NewBulkParser(validator),
		importer:  importer,
		cache:     cache,
		metrics:   metrics,
		renderers: map[string]datasetRenderer{csv.Extension(): csv, pdf.Extension(): pdf},
		logger:    logger,
		cfg:       cfg,
	}
}

// Records returns the collection visible to identity, served from the snapshot cache when possible.
func (s *StudentService) Records(ctx context.Context, identity models.Identity) ([]models.Student, error) {
	key := StudentSnapshotKey(identity.ID)
	var cached []models.Student
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	owner := ""
	if s.cfg.ScopeAtCollaborator {
		owner = identity.ID
	}
	var records []models.Student
	err := s.observe("list", func() error {
		var err error
		records, err = s.store.ListRecords(ctx, owner)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to list students", zap.String("user_id", identity.ID), zap.Error(err))
		return nil, persistenceError(err, msgFetchFailed)
	}

	owned := FilterOwned(records, identity.ID)
	_ = s.cache.Set(ctx, key, owned, s.cfg.SnapshotTTL)
	return owned, nil
}

// List renders the requested page, resetting to the first page when filters or sort changed
// since the caller's previous request. A non-empty toggle replaces the requested sort with
// the stored one toggled on that key.
func (s *StudentService) List(ctx context.Context, identity models.Identity, requested models.StudentViewState, toggle string) (*models.StudentListView, models.StudentViewState, error) {
	for _, key := range []string{requested.Sort.Key, toggle} {
		if key != "" && !IsSortKey(key) {
			return nil, requested, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported sort key %q", key))
		}
	}

	records, err := s.Records(ctx, identity)
	if err != nil {
		return nil, requested, err
	}

	var prev *models.StudentViewState
	var stored models.StudentViewState
	if hit, _ := s.cache.Get(ctx, ViewStateKey(identity.ID), &stored); hit {
		prev = &stored
	}
	if toggle != "" {
		var current models.StudentSort
		if prev != nil {
			current = prev.Sort
		}
		requested.Sort = ToggleSort(current, toggle)
	}
	state := NextViewState(prev, requested)
	_ = s.cache.Set(ctx, ViewStateKey(identity.ID), state, s.cfg.ViewStateTTL)

	view := BuildStudentView(records, state.Filter, state.Sort, models.PageRequest{Number: state.Page, Size: s.cfg.PageSize})
	return &view, state, nil
}

// ResetView clears the caller's filters and sort order.
func (s *StudentService) ResetView(ctx context.Context, identity models.Identity) models.StudentViewState {
	state := ResetViewState()
	_ = s.cache.Set(ctx, ViewStateKey(identity.ID), state, s.cfg.ViewStateTTL)
	return state
}

// Options lists the values offered by the filter controls.
func (s *StudentService) Options(ctx context.Context, identity models.Identity) (*models.StudentFilterOptions, error) {
	records, err := s.Records(ctx, identity)
	if err != nil {
		return nil, err
	}
	opts := StudentFilterOptions(records)
	return &opts, nil
}

// Get returns one student owned by identity.
func (s *StudentService) Get(ctx context.Context, identity models.Identity, id string) (*models.Student, error) {
	var student *models.Student
	err := s.observe("get", func() error {
		var err error
		student, err = s.store.GetRecord(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrStudentNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Warn("failed to load student", zap.String("student_id", id), zap.Error(err))
		return nil, persistenceError(err, msgLoadFailed)
	}
	if student.UserID != identity.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Validate checks a single candidate with the add/edit rules.
func (s *StudentService) Validate(input dto.StudentInput) error {
	if errs := s.validator.Validate(input, s.cfg.SingleRules); len(errs) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid student payload"), errs)
	}
	return nil
}

// Create validates and persists a new student owned by identity.
func (s *StudentService) Create(ctx context.Context, identity models.Identity, input dto.StudentInput) (*models.Student, error) {
	if err := s.Validate(input); err != nil {
		return nil, err
	}
	student := ToStudent(input)
	student.UserID = identity.ID

	created, err := s.persistOne(ctx, student)
	if err != nil {
		s.logger.Warn("failed to add student", zap.String("user_id", identity.ID), zap.Error(err))
		return nil, persistenceError(err, msgAddFailed)
	}
	s.invalidate(ctx, identity)
	return created, nil
}

// Update fully replaces a student owned by identity.
func (s *StudentService) Update(ctx context.Context, identity models.Identity, id string, input dto.StudentInput) (*models.Student, error) {
	if err := s.Validate(input); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	student := ToStudent(input)
	student.ID = existing.ID
	student.UserID = existing.UserID

	var updated *models.Student
	err = s.observe("update", func() error {
		var err error
		updated, err = s.store.UpdateRecord(ctx, id, student)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to update student", zap.String("student_id", id), zap.Error(err))
		return nil, persistenceError(err, msgUpdateFailed)
	}
	s.invalidate(ctx, identity)
	return updated, nil
}

// Delete removes a student owned by identity. There is no soft delete.
func (s *StudentService) Delete(ctx context.Context, identity models.Identity, id string) (*models.Student, error) {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return nil, err
	}
	var deleted *models.Student
	err := s.observe("delete", func() error {
		var err error
		deleted, err = s.store.DeleteRecord(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Warn("failed to delete student", zap.String("student_id", id), zap.Error(err))
		return nil, persistenceError(err, msgDeleteFailed)
	}
	s.invalidate(ctx, identity)
	return deleted, nil
}

// ParseImport parses and validates a pasted bulk payload.
func (s *StudentService) ParseImport(raw string) BulkParseResult {
	return s.parser.Parse(raw)
}

// Import submits every record of an accepted payload for identity.
func (s *StudentService) Import(ctx context.Context, identity models.Identity, records []models.Student) ImportResult {
	result := s.importer.Import(ctx, identity, records, s.persistOne)
	if result.SuccessCount > 0 {
		s.invalidate(context.WithoutCancel(ctx), identity)
	}
	return result
}

// Export renders every filtered and sorted record visible to identity.
func (s *StudentService) Export(ctx context.Context, identity models.Identity, filter models.StudentFilter, order models.StudentSort, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if order.Key != "" && !IsSortKey(order.Key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported sort key %q", order.Key))
	}
	records, err := s.Records(ctx, identity)
	if err != nil {
		return nil, err
	}
	selected := FilterStudents(records, filter)
	SortStudents(selected, order)

	body, err := renderer.Render(studentDataset(selected), "Students")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    "students." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *StudentService) persistOne(ctx context.Context, student models.Student) (*models.Student, error) {
	var created *models.Student
	err := s.observe("create", func() error {
		var err error
		created, err = s.store.CreateRecord(ctx, student)
		return err
	})
	return created, err
}

func (s *StudentService) invalidate(ctx context.Context, identity models.Identity) {
	_ = s.cache.Delete(ctx, StudentSnapshotKey(identity.ID))
}

func (s *StudentService) observe(operation string, call func() error) error {
	start := time.Now()
	err := call()
	s.metrics.ObserveStoreCall(operation, err, time.Since(start))
	return err
}

func persistenceError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, message)
}

var exportHeaders = []string{"Name", "Email", "Age", "Course", "Year", "Phone", "Address", "Enrollment Date", "Status"}

func studentDataset(students []models.Student) export.Dataset {
	rows := make([]map[string]string, len(students))
	for i, st := range students {
		rows[i] = map[string]string{
			"Name":            st.Name,
			"Email":           st.Email,
			"Age":             strconv.Itoa(st.Age),
			"Course":          st.Course,
			"Year":            strconv.Itoa(st.Year),
			"Phone":           st.Phone,
			"Address":         st.Address,
			"Enrollment Date": st.EnrollmentDate,
			"Status":          string(st.Status),
		}
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

// SampleImportFilename is the download name of the sample bulk payload.
const SampleImportFilename = "sample_students.json"

type sampleStudent struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Email          string `json:"email"`
	Course         string `json:"course"`
	Year           int    `json:"year"`
	Phone          string `json:"phone"`
	EnrollmentDate string `json:"enrollmentDate"`
	Status         string `json:"status"`
}

var sampleImportRecords = []sampleStudent{
	{Name: "John Doe", Age: 20, Email: "john.doe@example.com", Course: "Computer Science", Year: 2024, Phone: "1234567890", EnrollmentDate: "2024-01-15", Status: "Enrolled"},
	{Name: "Jane Smith", Age: 21, Email: "jane.smith@example.com", Course: "Engineering", Year: 2023, Phone: "9876543210", EnrollmentDate: "2023-08-20", Status: "Pending"},
}

// SampleImportPayload returns a pretty-printed bulk payload that passes validation.
func SampleImportPayload() []byte {
	raw, _ := json.MarshalIndent(sampleImportRecords, "", "  ")
	return raw
}

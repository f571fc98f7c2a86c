package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
)

const maxErrorBody = 512

type bearerTokenKey struct{}

// WithBearerToken attaches the caller's token so collaborator calls can forward it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// StudentAPIRepository talks to the remote student records API.
type StudentAPIRepository struct {
	baseURL string
	client  *http.Client
}

// NewStudentAPIRepository constructs a REST collaborator client. A non-positive timeout
// falls back to ten seconds.
func NewStudentAPIRepository(baseURL string, timeout time.Duration, client *http.Client) *StudentAPIRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &StudentAPIRepository{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ListRecords fetches the full collection. When owner is set the collaborator is asked to scope it.
func (r *StudentAPIRepository) ListRecords(ctx context.Context, owner string) ([]models.Student, error) {
	endpoint := r.baseURL + "/students"
	if owner != "" {
		endpoint += "?" + url.Values{"userId": {owner}}.Encode()
	}
	var wire []apiStudent
	if err := r.do(ctx, http.MethodGet, endpoint, nil, &wire); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	students := make([]models.Student, len(wire))
	for i, w := range wire {
		students[i] = w.toModel()
	}
	return students, nil
}

// GetRecord fetches one student.
func (r *StudentAPIRepository) GetRecord(ctx context.Context, id string) (*models.Student, error) {
	var wire apiStudent
	if err := r.do(ctx, http.MethodGet, r.recordURL(id), nil, &wire); err != nil {
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	student := wire.toModel()
	return &student, nil
}

// CreateRecord submits a new student and returns the stored record.
func (r *StudentAPIRepository) CreateRecord(ctx context.Context, student models.Student) (*models.Student, error) {
	student.ID = ""
	var wire apiStudent
	if err := r.do(ctx, http.MethodPost, r.baseURL+"/students", student, &wire); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	created := wire.toModel()
	return &created, nil
}

// UpdateRecord fully replaces a student.
func (r *StudentAPIRepository) UpdateRecord(ctx context.Context, id string, student models.Student) (*models.Student, error) {
	student.ID = id
	var wire apiStudent
	if err := r.do(ctx, http.MethodPut, r.recordURL(id), student, &wire); err != nil {
		return nil, fmt.Errorf("update student %s: %w", id, err)
	}
	updated := wire.toModel()
	if updated.ID == "" {
		updated = student
	}
	return &updated, nil
}

// DeleteRecord removes a student. Collaborators that answer with an empty body yield
// a record carrying only the ID.
func (r *StudentAPIRepository) DeleteRecord(ctx context.Context, id string) (*models.Student, error) {
	var wire apiStudent
	if err := r.do(ctx, http.MethodDelete, r.recordURL(id), nil, &wire); err != nil {
		return nil, fmt.Errorf("delete student %s: %w", id, err)
	}
	deleted := wire.toModel()
	if deleted.ID == "" {
		deleted.ID = id
	}
	return &deleted, nil
}

func (r *StudentAPIRepository) recordURL(id string) string {
	return r.baseURL + "/students/" + url.PathEscape(id)
}

func (r *StudentAPIRepository) do(ctx context.Context, method, endpoint string, body interface{}, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrStudentNotFound
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("collaborator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 || dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiStudent tolerates collaborators that store numbers as strings or ids as numbers.
type apiStudent struct {
	ID             dto.Text `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Age            dto.Text `json:"age"`
	Course         string   `json:"course"`
	Year           dto.Text `json:"year"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	EnrollmentDate string   `json:"enrollmentDate"`
	Status         string   `json:"status"`
	UserID         dto.Text `json:"userId"`
}

func (w apiStudent) toModel() models.Student {
	age, _ := strconv.Atoi(w.Age.Trimmed())
	year, _ := strconv.Atoi(w.Year.Trimmed())
	return models.Student{
		ID:             w.ID.Trimmed(),
		Name:           w.Name,
		Email:          w.Email,
		Age:            age,
		Course:         w.Course,
		Year:           year,
		Phone:          w.Phone,
		Address:        w.Address,
		EnrollmentDate: w.EnrollmentDate,
		Status:         models.StudentStatus(w.Status),
		UserID:         w.UserID.Trimmed(),
	}
}

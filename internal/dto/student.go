package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/noah-isme/students-gateway/internal/models"
)

// Text is a loosely typed form value. JSON strings, numbers and booleans decode to their
// textual form; null and composite values decode to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*t = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(trimmed)
	}
	return nil
}

// String returns the raw value.
func (t Text) String() string {
	return string(t)
}

// Trimmed returns the value without surrounding whitespace.
func (t Text) Trimmed() string {
	return strings.TrimSpace(string(t))
}

// StudentInput is an unvalidated student candidate coming from a form or a bulk payload.
type StudentInput struct {
	Name           Text `json:"name" validate:"notblank"`
	Email          Text `json:"email" validate:"notblank,student_email"`
	Age            Text `json:"age" validate:"notblank,positive_number"`
	Course         Text `json:"course" validate:"notblank"`
	Year           Text `json:"year" validate:"notblank,integral"`
	Phone          Text `json:"phone" validate:"phone10"`
	Address        Text `json:"address"`
	EnrollmentDate Text `json:"enrollmentDate" validate:"required"`
	Status         Text `json:"status" validate:"notblank,student_status"`
}

// StudentInputFromModel converts a stored record back into form values, e.g. to re-validate an edit.
func StudentInputFromModel(s models.Student) StudentInput {
	return StudentInput{
		Name:           Text(s.Name),
		Email:          Text(s.Email),
		Age:            Text(strconv.Itoa(s.Age)),
		Course:         Text(s.Course),
		Year:           Text(strconv.Itoa(s.Year)),
		Phone:          Text(s.Phone),
		Address:        Text(s.Address),
		EnrollmentDate: Text(s.EnrollmentDate),
		Status:         Text(s.Status),
	}
}

// ImportPreview summarises a parsed bulk payload before it is submitted.
type ImportPreview struct {
	Kind        string           `json:"kind,omitempty"`
	Errors      []string         `json:"errors"`
	Summary     string           `json:"summary,omitempty"`
	Preview     []models.Student `json:"preview"`
	TotalCount  int              `json:"totalCount"`
	CanImport   bool             `json:"canImport"`
	PreviewSize int              `json:"previewSize"`
}

// ImportResponse reports the outcome of a bulk import run.
type ImportResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
}

// ViewResetResponse echoes the cleared view state.
type ViewResetResponse struct {
	State models.StudentViewState `json:"state"`
}

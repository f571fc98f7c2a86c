package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
	appErrors "github.com/noah-isme/students-gateway/pkg/errors"
)

// ParseErrorKind classifies why a bulk payload was rejected.
type ParseErrorKind string

const (
	ParseOK               ParseErrorKind = ""
	ParseMalformedPayload ParseErrorKind = "MALFORMED_PAYLOAD"
	ParseInvalidShape     ParseErrorKind = "INVALID_SHAPE"
	ParseValidation       ParseErrorKind = "VALIDATION"
)

// ValidationSummary is reported alongside per-row errors.
const ValidationSummary = "Please fix the validation errors before importing"

// BulkParseResult is the tagged outcome of parsing a bulk payload. Records is only
// populated when Kind is ParseOK; a batch with any invalid row is rejected whole.
type BulkParseResult struct {
	Kind    ParseErrorKind
	Errors  []string
	Records []models.Student
	Summary string
}

// OK reports whether the payload can be imported as is.
func (r BulkParseResult) OK() bool {
	return r.Kind == ParseOK
}

// Err converts a rejected result into a typed error carrying the messages as details.
func (r BulkParseResult) Err() error {
	switch r.Kind {
	case ParseOK:
		return nil
	case ParseMalformedPayload:
		return appErrors.ErrMalformedPayload
	case ParseInvalidShape:
		return appErrors.ErrInvalidShape
	default:
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, r.Summary), r.Errors)
	}
}

// BulkParser turns pasted bulk payload text into validated candidate records.
type BulkParser struct {
	validator *StudentValidator
}

// NewBulkParser constructs a parser that validates elements with the batch rules.
func NewBulkParser(v *StudentValidator) *BulkParser {
	if v == nil {
		v = NewStudentValidator(nil)
	}
	return &BulkParser{validator: v}
}

// Parse decodes raw as a JSON array of student objects and validates every element.
func (p *BulkParser) Parse(raw string) BulkParseResult {
	if strings.TrimSpace(raw) == "" {
		return BulkParseResult{Errors: []string{}, Records: []models.Student{}}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return rejected(ParseMalformedPayload, appErrors.ErrMalformedPayload.Message)
	}
	if _, isArray := decoded.([]interface{}); !isArray {
		return rejected(ParseInvalidShape, appErrors.ErrInvalidShape.Message)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return rejected(ParseMalformedPayload, appErrors.ErrMalformedPayload.Message)
	}

	errs := []string{}
	inputs := make([]dto.StudentInput, len(elements))
	for i, element := range elements {
		inputs[i] = decodeCandidate(element)
		for _, msg := range p.validator.Validate(inputs[i], BatchRules).Ordered() {
			errs = append(errs, fmt.Sprintf("Student %d: %s", i+1, msg))
		}
	}

	if len(errs) > 0 {
		return BulkParseResult{Kind: ParseValidation, Errors: errs, Records: []models.Student{}, Summary: ValidationSummary}
	}

	records := make([]models.Student, len(inputs))
	for i, in := range inputs {
		records[i] = ToStudent(in)
	}
	return BulkParseResult{Errors: errs, Records: records}
}

// decodeCandidate reads one array element; anything that is not an object is a blank candidate.
func decodeCandidate(element json.RawMessage) dto.StudentInput {
	var in dto.StudentInput
	trimmed := strings.TrimSpace(string(element))
	if !strings.HasPrefix(trimmed, "{") {
		return in
	}
	if err := json.Unmarshal(element, &in); err != nil {
		return dto.StudentInput{}
	}
	return in
}

func rejected(kind ParseErrorKind, message string) BulkParseResult {
	return BulkParseResult{Kind: kind, Errors: []string{message}, Records: []models.Student{}}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
)

// FieldRules tunes the student field rules for one validation path.
type FieldRules struct {
	// StrictStatus additionally requires status to be one of the fixed enum values.
	StrictStatus bool
}

var (
	// BatchRules apply to every element of a bulk import.
	BatchRules = FieldRules{StrictStatus: true}
	// SingleRecordRules apply to the add and edit paths.
	SingleRecordRules = FieldRules{StrictStatus: true}
)

// FieldErrors maps a student field name to its first failing rule message. Empty means valid.
type FieldErrors map[string]string

// StudentFieldOrder is the order in which fields are checked and errors are reported.
var StudentFieldOrder = []string{"name", "email", "age", "course", "year", "phone", "enrollmentDate", "status"}

// Ordered returns the messages in field check order.
func (e FieldErrors) Ordered() []string {
	messages := make([]string, 0, len(e))
	for _, field := range StudentFieldOrder {
		if msg, ok := e[field]; ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

var statusEnumMessage = fmt.Sprintf("Invalid status. Must be one of: %s", joinStatuses(models.StudentStatuses))

// fieldMessages is keyed by field then failing validator tag.
var fieldMessages = map[string]map[string]string{
	"name":           {"notblank": "Name is required"},
	"email":          {"notblank": "Email is required", "student_email": "Invalid email format"},
	"age":            {"notblank": "Age is required", "positive_number": "Age must be a positive number"},
	"course":         {"notblank": "Course is required"},
	"year":           {"notblank": "Year is required", "integral": "Year must be a number"},
	"phone":          {"phone10": "Phone number must be 10 digits"},
	"enrollmentDate": {"required": "Enrollment Date is required"},
	"status":         {"notblank": "Status is required", "student_status": statusEnumMessage},
}

type fieldRulesKey struct{}

// StudentValidator applies the student field rules. It is safe for concurrent use.
type StudentValidator struct {
	validate *validator.Validate
}

// NewStudentValidator registers the student rule tags on the provided validator.
func NewStudentValidator(validate *validator.Validate) *StudentValidator {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(validate, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(validate, "student_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(validate, "positive_number", func(fl validator.FieldLevel) bool {
		n, ok := parseWhole(fl.Field().String())
		return ok && n > 0
	})
	mustRegister(validate, "integral", func(fl validator.FieldLevel) bool {
		_, ok := parseWhole(fl.Field().String())
		return ok
	})
	mustRegister(validate, "phone10", func(fl validator.FieldLevel) bool {
		phone := strings.TrimSpace(fl.Field().String())
		return phone == "" || phonePattern.MatchString(phone)
	})
	if err := validate.RegisterValidationCtx("student_status", func(ctx context.Context, fl validator.FieldLevel) bool {
		rules, _ := ctx.Value(fieldRulesKey{}).(FieldRules)
		if !rules.StrictStatus {
			return true
		}
		return models.StudentStatus(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return &StudentValidator{validate: validate}
}

// Validate checks a candidate against the field rules, returning the first failing message per field.
func (v *StudentValidator) Validate(input dto.StudentInput, rules FieldRules) FieldErrors {
	ctx := context.WithValue(context.Background(), fieldRulesKey{}, rules)
	errs := FieldErrors{}
	err := v.validate.StructCtx(ctx, input)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["record"] = "Invalid student record"
		return errs
	}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		if msg, ok := fieldMessages[field][fe.Tag()]; ok {
			errs[field] = msg
		}
	}
	return errs
}

// ToStudent converts a validated candidate into a record. It must only be called when Validate returned no errors.
func ToStudent(input dto.StudentInput) models.Student {
	age, _ := parseWhole(input.Age.String())
	year, _ := parseWhole(input.Year.String())
	return models.Student{
		Name:           input.Name.Trimmed(),
		Email:          input.Email.Trimmed(),
		Age:            int(age),
		Course:         input.Course.Trimmed(),
		Year:           int(year),
		Phone:          input.Phone.Trimmed(),
		Address:        input.Address.Trimmed(),
		EnrollmentDate: input.EnrollmentDate.Trimmed(),
		Status:         models.StudentStatus(input.Status.Trimmed()),
	}
}

// parseWhole parses a finite whole number within the int32 range.
func parseWhole(raw string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int64(f), true
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func joinStatuses(statuses []models.StudentStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

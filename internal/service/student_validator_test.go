package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/models"
)

func validInput() dto.StudentInput {
	return dto.StudentInput{
		Name:           "John Doe",
		Email:          "john.doe@example.com",
		Age:            "20",
		Course:         "Computer Science",
		Year:           "2024",
		Phone:          "1234567890",
		EnrollmentDate: "2024-01-15",
		Status:         "Enrolled",
	}
}

func TestStudentValidatorValidInput(t *testing.T) {
	v := NewStudentValidator(nil)
	assert.Empty(t, v.Validate(validInput(), BatchRules))
}

func TestStudentValidatorBoundaries(t *testing.T) {
	v := NewStudentValidator(nil)

	cases := []struct {
		name   string
		mutate func(*dto.StudentInput)
		field  string
		msg    string
	}{
		{"blank name", func(in *dto.StudentInput) { in.Name = "   " }, "name", "Name is required"},
		{"missing email", func(in *dto.StudentInput) { in.Email = "" }, "email", "Email is required"},
		{"email without tld", func(in *dto.StudentInput) { in.Email = "john@example" }, "email", "Invalid email format"},
		{"email with space", func(in *dto.StudentInput) { in.Email = "jo hn@example.com" }, "email", "Invalid email format"},
		{"missing age", func(in *dto.StudentInput) { in.Age = "" }, "age", "Age is required"},
		{"zero age", func(in *dto.StudentInput) { in.Age = "0" }, "age", "Age must be a positive number"},
		{"negative age", func(in *dto.StudentInput) { in.Age = "-3" }, "age", "Age must be a positive number"},
		{"text age", func(in *dto.StudentInput) { in.Age = "twenty" }, "age", "Age must be a positive number"},
		{"blank course", func(in *dto.StudentInput) { in.Course = " " }, "course", "Course is required"},
		{"missing year", func(in *dto.StudentInput) { in.Year = "" }, "year", "Year is required"},
		{"text year", func(in *dto.StudentInput) { in.Year = "last" }, "year", "Year must be a number"},
		{"nine digit phone", func(in *dto.StudentInput) { in.Phone = "123456789" }, "phone", "Phone number must be 10 digits"},
		{"phone with letters", func(in *dto.StudentInput) { in.Phone = "12345abcde" }, "phone", "Phone number must be 10 digits"},
		{"missing enrollment date", func(in *dto.StudentInput) { in.EnrollmentDate = "" }, "enrollmentDate", "Enrollment Date is required"},
		{"blank status", func(in *dto.StudentInput) { in.Status = "  " }, "status", "Status is required"},
		{"unknown status", func(in *dto.StudentInput) { in.Status = "Paused" }, "status", "Invalid status. Must be one of: Enrolled, Pending, Graduated, Dropped"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			errs := v.Validate(in, BatchRules)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.msg, errs[tc.field])
		})
	}
}

func TestStudentValidatorPassingBoundaries(t *testing.T) {
	v := NewStudentValidator(nil)

	in := validInput()
	in.Age = "1"
	in.Year = "0"
	in.Phone = " 0123456789 "
	assert.Empty(t, v.Validate(in, BatchRules))

	in.Phone = "   "
	assert.Empty(t, v.Validate(in, BatchRules), "blank phone is treated as absent")
}

func TestStudentValidatorLenientStatus(t *testing.T) {
	v := NewStudentValidator(nil)
	in := validInput()
	in.Status = "On hold"

	assert.Empty(t, v.Validate(in, FieldRules{StrictStatus: false}))
	assert.Contains(t, v.Validate(in, FieldRules{StrictStatus: true}), "status")
}

func TestStudentValidatorReportsEveryFieldInOrder(t *testing.T) {
	v := NewStudentValidator(nil)
	errs := v.Validate(dto.StudentInput{Phone: "12"}, BatchRules)

	assert.Equal(t, []string{
		"Name is required",
		"Email is required",
		"Age is required",
		"Course is required",
		"Year is required",
		"Phone number must be 10 digits",
		"Enrollment Date is required",
		"Status is required",
	}, errs.Ordered())
}

func TestStudentValidatorDeterministic(t *testing.T) {
	v := NewStudentValidator(nil)
	in := dto.StudentInput{Email: "bad", Age: "-1"}
	assert.Equal(t, v.Validate(in, BatchRules), v.Validate(in, BatchRules))
}

func TestToStudent(t *testing.T) {
	in := validInput()
	in.Name = "  Jane  "
	in.Age = "21.0"

	s := ToStudent(in)
	assert.Equal(t, "Jane", s.Name)
	assert.Equal(t, 21, s.Age)
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, models.StudentStatusEnrolled, s.Status)
	assert.Empty(t, s.ID)
}

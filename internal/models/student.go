package models

import "errors"

// StudentStatus enumerates the lifecycle states of a student record.
type StudentStatus string

const (
	StudentStatusEnrolled  StudentStatus = "Enrolled"
	StudentStatusPending   StudentStatus = "Pending"
	StudentStatusGraduated StudentStatus = "Graduated"
	StudentStatusDropped   StudentStatus = "Dropped"
)

// StudentStatuses lists the accepted statuses in display order.
var StudentStatuses = []StudentStatus{
	StudentStatusEnrolled,
	StudentStatusPending,
	StudentStatusGraduated,
	StudentStatusDropped,
}

// Valid reports whether the status belongs to the fixed enum.
func (s StudentStatus) Valid() bool {
	for _, status := range StudentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Student is a persisted student record. ID is assigned by the persistence collaborator.
type Student struct {
	ID             string        `db:"id" json:"id,omitempty"`
	Name           string        `db:"name" json:"name"`
	Email          string        `db:"email" json:"email"`
	Age            int           `db:"age" json:"age"`
	Course         string        `db:"course" json:"course"`
	Year           int           `db:"year" json:"year"`
	Phone          string        `db:"phone" json:"phone,omitempty"`
	Address        string        `db:"address" json:"address,omitempty"`
	EnrollmentDate string        `db:"enrollment_date" json:"enrollmentDate"`
	Status         StudentStatus `db:"status" json:"status"`
	UserID         string        `db:"user_id" json:"userId,omitempty"`
}

// Sortable student fields.
const (
	SortByName           = "name"
	SortByEmail          = "email"
	SortByAge            = "age"
	SortByCourse         = "course"
	SortByYear           = "year"
	SortByEnrollmentDate = "enrollmentDate"
	SortByStatus         = "status"
)

// SortDirection orders sorted output.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// StudentFilter holds the AND-combined list criteria. Empty fields match everything.
type StudentFilter struct {
	Status string `json:"status,omitempty"`
	Year   *int   `json:"year,omitempty"`
	Course string `json:"course,omitempty"`
	Search string `json:"search,omitempty"`
}

// Equal compares two filters field by field.
func (f StudentFilter) Equal(other StudentFilter) bool {
	if f.Status != other.Status || f.Course != other.Course || f.Search != other.Search {
		return false
	}
	if f.Year == nil || other.Year == nil {
		return f.Year == nil && other.Year == nil
	}
	return *f.Year == *other.Year
}

// StudentSort selects the sort key and direction. An empty key keeps input order.
type StudentSort struct {
	Key       string        `json:"key,omitempty"`
	Direction SortDirection `json:"direction"`
}

// PageRequest addresses one 1-based page of a list view.
type PageRequest struct {
	Number int `json:"page"`
	Size   int `json:"pageSize"`
}

// StudentViewState captures the list view controls of one user between requests.
type StudentViewState struct {
	Filter StudentFilter `json:"filter"`
	Sort   StudentSort   `json:"sort"`
	Page   int           `json:"page"`
}

// StudentListView is one rendered page of the filtered, sorted collection.
type StudentListView struct {
	Students      []Student `json:"students"`
	Page          int       `json:"page"`
	PageSize      int       `json:"pageSize"`
	TotalFiltered int       `json:"totalFiltered"`
	TotalPages    int       `json:"totalPages"`
}

// StudentFilterOptions lists distinct values offered by the filter controls.
type StudentFilterOptions struct {
	Statuses []StudentStatus `json:"statuses"`
	Years    []int           `json:"years"`
	Courses  []string        `json:"courses"`
}

// Pagination describes the page metadata attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ErrStudentNotFound is returned by persistence collaborators when no record has the requested id.
var ErrStudentNotFound = errors.New("student not found")

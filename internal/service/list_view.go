package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/students-gateway/internal/models"
)

// DefaultPageSize is the number of students rendered per page.
const DefaultPageSize = 6

var enrollmentDateLayouts = []string{time.DateOnly, time.RFC3339, time.RFC3339Nano}

// BuildStudentView filters, sorts and paginates a snapshot of the record collection.
// The input slice is never modified.
func BuildStudentView(records []models.Student, filter models.StudentFilter, order models.StudentSort, page models.PageRequest) models.StudentListView {
	filtered := FilterStudents(records, filter)
	SortStudents(filtered, order)

	size := page.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	number := page.Number
	if number < 1 {
		number = 1
	}

	total := len(filtered)
	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}

	start, end := total, total
	if number <= totalPages {
		start = (number - 1) * size
		end = min(start+size, total)
	}

	return models.StudentListView{
		Students:      filtered[start:end:end],
		Page:          number,
		PageSize:      size,
		TotalFiltered: total,
		TotalPages:    totalPages,
	}
}

// FilterOwned keeps the records tagged with the owner identity.
func FilterOwned(records []models.Student, owner string) []models.Student {
	owned := make([]models.Student, 0, len(records))
	for _, s := range records {
		if s.UserID == owner {
			owned = append(owned, s)
		}
	}
	return owned
}

// FilterStudents returns a new slice with records matching every set criterion, in input order.
func FilterStudents(records []models.Student, filter models.StudentFilter) []models.Student {
	search := strings.ToLower(filter.Search)
	out := make([]models.Student, 0, len(records))
	for _, s := range records {
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		if filter.Year != nil && s.Year != *filter.Year {
			continue
		}
		if filter.Course != "" && s.Course != filter.Course {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(s.Name), search) &&
			!strings.Contains(strings.ToLower(s.Email), search) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// SortStudents stably sorts records in place. An empty key leaves the order untouched.
func SortStudents(records []models.Student, order models.StudentSort) {
	cmp := comparatorFor(order.Key)
	if cmp == nil {
		return
	}
	desc := order.Direction == models.SortDesc
	sort.SliceStable(records, func(i, j int) bool {
		c := cmp(records[i], records[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// IsSortKey reports whether key names a sortable field.
func IsSortKey(key string) bool {
	return comparatorFor(key) != nil
}

type studentComparator func(a, b models.Student) int

func comparatorFor(key string) studentComparator {
	switch key {
	case models.SortByName:
		return func(a, b models.Student) int { return strings.Compare(a.Name, b.Name) }
	case models.SortByEmail:
		return func(a, b models.Student) int { return strings.Compare(a.Email, b.Email) }
	case models.SortByCourse:
		return func(a, b models.Student) int { return strings.Compare(a.Course, b.Course) }
	case models.SortByStatus:
		return func(a, b models.Student) int { return strings.Compare(string(a.Status), string(b.Status)) }
	case models.SortByAge:
		return func(a, b models.Student) int { return compareInts(a.Age, b.Age) }
	case models.SortByYear:
		return func(a, b models.Student) int { return compareInts(a.Year, b.Year) }
	case models.SortByEnrollmentDate:
		return func(a, b models.Student) int { return compareDates(a.EnrollmentDate, b.EnrollmentDate) }
	default:
		return nil
	}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDates compares calendar instants. Unparseable dates sort after parseable ones and
// fall back to text comparison among themselves.
func compareDates(a, b string) int {
	ta, okA := parseEnrollmentDate(a)
	tb, okB := parseEnrollmentDate(b)
	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func parseEnrollmentDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range enrollmentDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StudentFilterOptions collects the distinct years and courses present in the collection, ascending.
func StudentFilterOptions(records []models.Student) models.StudentFilterOptions {
	years := make([]int, 0)
	courses := make([]string, 0)
	seenYears := make(map[int]struct{})
	seenCourses := make(map[string]struct{})
	for _, s := range records {
		if _, ok := seenYears[s.Year]; !ok {
			seenYears[s.Year] = struct{}{}
			years = append(years, s.Year)
		}
		if _, ok := seenCourses[s.Course]; !ok && s.Course != "" {
			seenCourses[s.Course] = struct{}{}
			courses = append(courses, s.Course)
		}
	}
	sort.Ints(years)
	sort.Strings(courses)
	return models.StudentFilterOptions{
		Statuses: append([]models.StudentStatus(nil), models.StudentStatuses...),
		Years:    years,
		Courses:  courses,
	}
}

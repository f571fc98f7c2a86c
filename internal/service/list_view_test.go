package service

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/students-gateway/internal/models"
)

func sampleStudents() []models.Student {
	return []models.Student{
		{ID: "1", Name: "Alice Brown", Email: "alice@example.com", Age: 30, Course: "Math", Year: 2022, EnrollmentDate: "2022-09-01", Status: models.StudentStatusEnrolled},
		{ID: "2", Name: "Bob Stone", Email: "bob@school.org", Age: 18, Course: "Art", Year: 2024, EnrollmentDate: "2024-01-10", Status: models.StudentStatusPending},
		{ID: "3", Name: "Carla Diaz", Email: "carla@example.com", Age: 25, Course: "Math", Year: 2022, EnrollmentDate: "2021-03-15", Status: models.StudentStatusEnrolled},
		{ID: "4", Name: "Dan Wu", Email: "dan@school.org", Age: 22, Course: "History", Year: 2023, EnrollmentDate: "2023-02-20", Status: models.StudentStatusGraduated},
		{ID: "5", Name: "Eve Black", Email: "eve@school.org", Age: 27, Course: "Art", Year: 2010, EnrollmentDate: "2010-06-30", Status: models.StudentStatusDropped},
	}
}

func ids(students []models.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func TestFilterStudentsByStatusAndSearch(t *testing.T) {
	students := sampleStudents()

	enrolled := FilterStudents(students, models.StudentFilter{Status: "Enrolled"})
	assert.Equal(t, []string{"1", "3"}, ids(enrolled))

	narrowed := FilterStudents(students, models.StudentFilter{Status: "Enrolled", Search: "CARLA"})
	assert.Equal(t, []string{"3"}, ids(narrowed))
}

func TestFilterStudentsSearchMatchesEmail(t *testing.T) {
	got := FilterStudents(sampleStudents(), models.StudentFilter{Search: "School.ORG"})
	assert.Equal(t, []string{"2", "4", "5"}, ids(got))
}

func TestFilterStudentsYearIsNumeric(t *testing.T) {
	year := 2022
	got := FilterStudents(sampleStudents(), models.StudentFilter{Year: &year, Course: "Math"})
	assert.Equal(t, []string{"1", "3"}, ids(got))

	other := 202
	assert.Empty(t, FilterStudents(sampleStudents(), models.StudentFilter{Year: &other}))
}

func TestSortStudentsByAge(t *testing.T) {
	students := []models.Student{{ID: "a", Age: 30}, {ID: "b", Age: 18}, {ID: "c", Age: 25}}

	SortStudents(students, models.StudentSort{Key: models.SortByAge, Direction: models.SortAsc})
	assert.Equal(t, []string{"b", "c", "a"}, ids(students))

	SortStudents(students, models.StudentSort{Key: models.SortByAge, Direction: models.SortDesc})
	assert.Equal(t, []string{"a", "c", "b"}, ids(students))
}

func TestSortStudentsIsStable(t *testing.T) {
	students := []models.Student{{ID: "x", Year: 2023}, {ID: "y", Year: 2021}, {ID: "z", Year: 2023}, {ID: "w", Year: 2021}}

	asc := append([]models.Student(nil), students...)
	SortStudents(asc, models.StudentSort{Key: models.SortByYear, Direction: models.SortAsc})
	assert.Equal(t, []string{"y", "w", "x", "z"}, ids(asc))

	desc := append([]models.Student(nil), students...)
	SortStudents(desc, models.StudentSort{Key: models.SortByYear, Direction: models.SortDesc})
	assert.Equal(t, []string{"x", "z", "y", "w"}, ids(desc))
}

func TestSortStudentsNumericNotLexicographic(t *testing.T) {
	students := []models.Student{{ID: "ten", Age: 10}, {ID: "two", Age: 2}}
	SortStudents(students, models.StudentSort{Key: models.SortByAge, Direction: models.SortAsc})
	assert.Equal(t, []string{"two", "ten"}, ids(students))
}

func TestSortStudentsByEnrollmentDate(t *testing.T) {
	students := sampleStudents()
	students = append(students, models.Student{ID: "6", EnrollmentDate: "someday"})
	SortStudents(students, models.StudentSort{Key: models.SortByEnrollmentDate, Direction: models.SortAsc})
	assert.Equal(t, []string{"5", "3", "1", "4", "2", "6"}, ids(students))
}

func TestSortStudentsStringsAreCaseSensitive(t *testing.T) {
	students := []models.Student{{ID: "lower", Name: "adam"}, {ID: "upper", Name: "Zoe"}}
	SortStudents(students, models.StudentSort{Key: models.SortByName, Direction: models.SortAsc})
	assert.Equal(t, []string{"upper", "lower"}, ids(students))
}

func TestSortStudentsWithoutKeyKeepsOrder(t *testing.T) {
	students := sampleStudents()
	SortStudents(students, models.StudentSort{Direction: models.SortDesc})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(students))
	assert.False(t, IsSortKey("phone"))
}

func TestBuildStudentViewPagination(t *testing.T) {
	students := make([]models.Student, 13)
	for i := range students {
		students[i] = models.Student{ID: fmt.Sprintf("%02d", i+1), Status: models.StudentStatusEnrolled}
	}

	first := BuildStudentView(students, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{Number: 1, Size: 6})
	assert.Equal(t, 13, first.TotalFiltered)
	assert.Equal(t, 3, first.TotalPages)
	assert.Len(t, first.Students, 6)

	third := BuildStudentView(students, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{Number: 3, Size: 6})
	require.Len(t, third.Students, 1)
	assert.Equal(t, "13", third.Students[0].ID)

	beyond := BuildStudentView(students, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{Number: 4, Size: 6})
	assert.NotNil(t, beyond.Students)
	assert.Empty(t, beyond.Students)
	assert.Equal(t, 3, beyond.TotalPages)
}

func TestBuildStudentViewHugePageNumber(t *testing.T) {
	students := make([]models.Student, 13)
	for i := range students {
		students[i] = models.Student{ID: fmt.Sprintf("%02d", i+1)}
	}

	for _, number := range []int{math.MaxInt / 6, math.MaxInt/6 + 2, math.MaxInt} {
		var view models.StudentListView
		require.NotPanics(t, func() {
			view = BuildStudentView(students, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{Number: number, Size: 6})
		})
		assert.Empty(t, view.Students)
		assert.Equal(t, 3, view.TotalPages)
		assert.Equal(t, number, view.Page)
	}

	view := BuildStudentView(students, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{Number: 2, Size: math.MaxInt})
	assert.Equal(t, 1, view.TotalPages)
	assert.Empty(t, view.Students)
}

func TestBuildStudentViewEmptyCollection(t *testing.T) {
	view := BuildStudentView(nil, models.StudentFilter{}, models.StudentSort{}, models.PageRequest{})
	assert.Equal(t, 0, view.TotalPages)
	assert.Equal(t, 0, view.TotalFiltered)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, DefaultPageSize, view.PageSize)
	assert.Empty(t, view.Students)
}

func TestBuildStudentViewDoesNotMutateInput(t *testing.T) {
	students := sampleStudents()
	BuildStudentView(students, models.StudentFilter{}, models.StudentSort{Key: models.SortByAge, Direction: models.SortAsc}, models.PageRequest{Number: 1})
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(students))
}

func TestFilterOwned(t *testing.T) {
	students := []models.Student{{ID: "1", UserID: "u1"}, {ID: "2", UserID: "u2"}, {ID: "3"}}
	assert.Equal(t, []string{"1"}, ids(FilterOwned(students, "u1")))
}

func TestStudentFilterOptions(t *testing.T) {
	opts := StudentFilterOptions(sampleStudents())
	assert.Equal(t, []int{2010, 2022, 2023, 2024}, opts.Years)
	assert.Equal(t, []string{"Art", "History", "Math"}, opts.Courses)
	assert.Len(t, opts.Statuses, 4)
}

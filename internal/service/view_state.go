package service

import "github.com/noah-isme/students-gateway/internal/models"

// NextViewState applies a requested view over the previous one. Any change to the
// filters or sort order sends the user back to the first page.
func NextViewState(prev *models.StudentViewState, requested models.StudentViewState) models.StudentViewState {
	next := requested
	if next.Sort.Direction == "" {
		next.Sort.Direction = models.SortAsc
	}
	if next.Page < 1 {
		next.Page = 1
	}
	if prev == nil {
		return next
	}
	if !prev.Filter.Equal(next.Filter) || prev.Sort != next.Sort {
		next.Page = 1
	}
	return next
}

// ToggleSort selects key, flipping the direction when key is already sorted ascending.
func ToggleSort(prev models.StudentSort, key string) models.StudentSort {
	if prev.Key == key && prev.Direction == models.SortAsc {
		return models.StudentSort{Key: key, Direction: models.SortDesc}
	}
	return models.StudentSort{Key: key, Direction: models.SortAsc}
}

// ResetViewState clears filters and sort order.
func ResetViewState() models.StudentViewState {
	return models.StudentViewState{Sort: models.StudentSort{Direction: models.SortAsc}, Page: 1}
}

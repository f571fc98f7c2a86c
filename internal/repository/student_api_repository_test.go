package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/students-gateway/internal/models"
)

func TestStudentAPIRepositoryListForwardsTokenAndScope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/students", r.URL.Path)
		assert.Equal(t, "owner-1", r.URL.Query().Get("userId"))
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":7,"name":"John Doe","age":"20","year":2024,"status":"Enrolled","userId":"owner-1"}]`)
	}))
	defer srv.Close()

	repo := NewStudentAPIRepository(srv.URL+"/", time.Second, nil)
	students, err := repo.ListRecords(WithBearerToken(context.Background(), "tkn"), "owner-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "7", students[0].ID)
	assert.Equal(t, 20, students[0].Age)
	assert.Equal(t, 2024, students[0].Year)
	assert.Equal(t, "owner-1", students[0].UserID)
}

func TestStudentAPIRepositoryListUnscoped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	students, err := NewStudentAPIRepository(srv.URL, 0, nil).ListRecords(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentAPIRepositoryCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "id")
		assert.Equal(t, "owner-1", body["userId"])
		body["id"] = "abc"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	created, err := NewStudentAPIRepository(srv.URL, time.Second, nil).CreateRecord(context.Background(), models.Student{
		Name: "Jane Smith", Age: 21, Year: 2023, Status: models.StudentStatusPending, UserID: "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", created.ID)
	assert.Equal(t, 21, created.Age)
}

func TestStudentAPIRepositoryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewStudentAPIRepository(srv.URL, time.Second, nil).GetRecord(context.Background(), "missing")
	assert.True(t, errors.Is(err, models.ErrStudentNotFound))
}

func TestStudentAPIRepositoryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	}))
	defer srv.Close()

	_, err := NewStudentAPIRepository(srv.URL, time.Second, nil).UpdateRecord(context.Background(), "1", models.Student{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500: boom")
	assert.False(t, errors.Is(err, models.ErrStudentNotFound))
}

func TestStudentAPIRepositoryDeleteEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/students/a%20b", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	deleted, err := NewStudentAPIRepository(srv.URL, time.Second, nil).DeleteRecord(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, "a b", deleted.ID)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/students-gateway/internal/models"
)

const studentColumns = "id, name, email, age, course, year, phone, address, enrollment_date, status, user_id"

// StudentRepository persists student records in PostgreSQL.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListRecords returns every record in insertion order, limited to owner when set.
func (r *StudentRepository) ListRecords(ctx context.Context, owner string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students"
	var args []interface{}
	if owner != "" {
		query += " WHERE user_id = $1"
		args = append(args, owner)
	}
	query += " ORDER BY created_at ASC, id ASC"

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// GetRecord fetches a student by ID.
func (r *StudentRepository) GetRecord(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return &student, nil
}

// CreateRecord inserts a new student and assigns its ID.
func (r *StudentRepository) CreateRecord(ctx context.Context, student models.Student) (*models.Student, error) {
	student.ID = uuid.NewString()
	now := time.Now().UTC()
	query := `INSERT INTO students (id, name, email, age, course, year, phone, address, enrollment_date, status, user_id, created_at, updated_at)
        VALUES (:id, :name, :email, :age, :course, :year, :phone, :address, :enrollment_date, :status, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, studentRow{Student: student, CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &student, nil
}

// UpdateRecord replaces every mutable field of the student.
func (r *StudentRepository) UpdateRecord(ctx context.Context, id string, student models.Student) (*models.Student, error) {
	student.ID = id
	query := `UPDATE students SET name = :name, email = :email, age = :age, course = :course, year = :year, phone = :phone,
        address = :address, enrollment_date = :enrollment_date, status = :status, user_id = :user_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, studentRow{Student: student, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return &student, nil
}

// DeleteRecord hard-deletes the student and returns the removed record.
func (r *StudentRepository) DeleteRecord(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	query := "DELETE FROM students WHERE id = $1 RETURNING " + studentColumns
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStudentNotFound
		}
		return nil, fmt.Errorf("delete student: %w", err)
	}
	return &student, nil
}

type studentRow struct {
	models.Student
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return models.ErrStudentNotFound
	}
	return nil
}

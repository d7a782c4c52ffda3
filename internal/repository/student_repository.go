package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
)

// StudentRepository persists domain.Student rows, grounded on
// original_source/repositories/student_repository.py's
// get_by_enrollment_number/create/update/exists methods.
type StudentRepository struct {
	DB *sql.DB
}

func NewStudentRepository(database *sql.DB) *StudentRepository {
	return &StudentRepository{DB: database}
}

func scanStudent(row *sql.Row) (*domain.Student, error) {
	var s domain.Student
	if err := row.Scan(&s.ID, &s.EnrollmentNumber, &s.Name, &s.Email,
		&s.TotalApprovedHours, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

const studentColumns = `id, enrollment_number, name, email, total_approved_hours, created_at, updated_at`

func (r *StudentRepository) GetByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (*domain.Student, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE enrollment_number = $1`, enrollmentNumber)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading student %q: %w", enrollmentNumber, err)
	}
	return s, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStudentNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading student %d: %w", id, err)
	}
	return s, nil
}

func (r *StudentRepository) ExistsByEnrollmentNumber(ctx context.Context, enrollmentNumber string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE enrollment_number = $1)`, enrollmentNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking student existence %q: %w", enrollmentNumber, err)
	}
	return exists, nil
}

func (r *StudentRepository) Create(ctx context.Context, enrollmentNumber, name string, email *string) (*domain.Student, error) {
	exists, err := r.ExistsByEnrollmentNumber(ctx, enrollmentNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrStudentExists
	}

	now := time.Now().UTC()
	var id int64
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO students (enrollment_number, name, email, total_approved_hours, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, $4, $4) RETURNING id`,
		enrollmentNumber, name, email, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating student %q: %w", enrollmentNumber, err)
	}
	return &domain.Student{
		ID: id, EnrollmentNumber: enrollmentNumber, Name: name, Email: email,
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

// Update applies a partial update; nil pointers leave the column unchanged.
func (r *StudentRepository) Update(ctx context.Context, enrollmentNumber string, name *string, email *string, clearEmail bool) (*domain.Student, error) {
	student, err := r.GetByEnrollmentNumber(ctx, enrollmentNumber)
	if err != nil {
		return nil, err
	}
	if name != nil {
		student.Name = *name
	}
	if clearEmail {
		student.Email = nil
	} else if email != nil {
		student.Email = email
	}
	student.UpdatedAt = time.Now().UTC()

	_, err = r.DB.ExecContext(ctx,
		`UPDATE students SET name = $1, email = $2, updated_at = $3 WHERE id = $4`,
		student.Name, student.Email, student.UpdatedAt, student.ID)
	if err != nil {
		return nil, fmt.Errorf("updating student %q: %w", enrollmentNumber, err)
	}
	return student, nil
}

// AddApprovedHours atomically increments total_approved_hours as part of
// approval (C12); it must be called inside the same transaction as the
// submission/activity updates.
func AddApprovedHours(ctx context.Context, tx *sql.Tx, studentID, hours int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE students SET total_approved_hours = total_approved_hours + $1, updated_at = now() WHERE id = $2`,
		hours, studentID)
	if err != nil {
		return fmt.Errorf("accruing approved hours for student %d: %w", studentID, err)
	}
	return nil
}

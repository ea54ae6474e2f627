package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

var studentColumns = []string{
	"s.id", "s.admission_no", "s.full_name", "s.gender", "s.date_of_birth", "s.father_name", "s.mother_name",
	"s.guardian_phone", "s.address", "s.class_id", "s.academic_year", "s.photo", "s.is_active", "s.created_at",
	"s.updated_at", "c.name AS class_name",
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func studentConditions(builder squirrel.SelectBuilder, filter models.StudentFilter) squirrel.SelectBuilder {
	if !filter.IncludeInactive {
		builder = builder.Where(squirrel.Eq{"s.is_active": true})
	}
	if filter.ClassID != "" {
		builder = builder.Where(squirrel.Eq{"s.class_id": filter.ClassID})
	}
	if filter.AcademicYear != "" {
		builder = builder.Where(squirrel.Eq{"s.academic_year": filter.AcademicYear})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"s.full_name": pattern},
			squirrel.ILike{"s.admission_no": pattern},
		})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	return builder
}

// List returns students matching the provided filters ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	builder := psql.Select(studentColumns...).
		From("students s").
		Join("classes c ON c.id = s.class_id").
		OrderBy("s.full_name")
	var students []models.StudentDetail
	if err := selectBuilt(ctx, r.db, &students, studentConditions(builder, filter)); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// Options returns the compact rows used by dropdowns.
func (r *StudentRepository) Options(ctx context.Context, filter models.StudentFilter) ([]models.StudentOption, error) {
	builder := psql.Select("s.id", "s.admission_no", "s.full_name").
		From("students s").
		OrderBy("s.full_name")
	var options []models.StudentOption
	if err := selectBuilt(ctx, r.db, &options, studentConditions(builder, filter)); err != nil {
		return nil, fmt.Errorf("list student options: %w", err)
	}
	return options, nil
}

// FindByID fetches a student with its class name.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query, args, err := psql.Select(studentColumns...).
		From("students s").
		Join("classes c ON c.id = s.class_id").
		Where(squirrel.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountByAdmissionNo counts rows using admissionNo, optionally excluding one student.
func (r *StudentRepository) CountByAdmissionNo(ctx context.Context, tx *sqlx.Tx, admissionNo, excludeID string) (int, error) {
	builder := psql.Select("COUNT(*)").From("students").Where(squirrel.Eq{"admission_no": admissionNo})
	if excludeID != "" {
		builder = builder.Where(squirrel.NotEq{"id": excludeID})
	}
	count, err := countBuilt(ctx, tx, builder)
	if err != nil {
		return 0, fmt.Errorf("count admission number: %w", err)
	}
	return count, nil
}

// ActiveStatus returns whether the student is active. sql.ErrNoRows means the student does not exist.
func (r *StudentRepository) ActiveStatus(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var active bool
	if err := tx.GetContext(ctx, &active, `SELECT is_active FROM students WHERE id = $1`, id); err != nil {
		return false, err
	}
	return active, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, admission_no, full_name, gender, date_of_birth, father_name, mother_name, guardian_phone, address, class_id, academic_year, photo, is_active, created_at, updated_at)
        VALUES (:id, :admission_no, :full_name, :gender, :date_of_birth, :father_name, :mother_name, :guardian_phone, :address, :class_id, :academic_year, :photo, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. sql.ErrNoRows is returned when the id is unknown.
func (r *StudentRepository) Update(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET admission_no = :admission_no, full_name = :full_name, gender = :gender, date_of_birth = :date_of_birth,
        father_name = :father_name, mother_name = :mother_name, guardian_phone = :guardian_phone, address = :address,
        class_id = :class_id, academic_year = :academic_year, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireAffected(res)
}

// Deactivate soft deletes a student.
func (r *StudentRepository) Deactivate(ctx context.Context, tx *sqlx.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `UPDATE students SET is_active = false, updated_at = $2 WHERE id = $1 AND is_active`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireAffected(res)
}

// UpdatePhoto stores the filename of the student's uploaded photo.
func (r *StudentRepository) UpdatePhoto(ctx context.Context, tx *sqlx.Tx, id, photo string) error {
	res, err := tx.ExecContext(ctx, `UPDATE students SET photo = $2, updated_at = $3 WHERE id = $1`, id, photo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update student photo: %w", err)
	}
	return requireAffected(res)
}

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

var teacherColumns = []string{
	"t.id", "t.full_name", "t.email", "t.phone", "t.qualification", "t.department", "t.class_id", "t.is_active",
	"t.created_at", "t.updated_at", "c.name AS class_name",
}

// TeacherRepository handles persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers filtered by search and department.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error) {
	builder := psql.Select(teacherColumns...).
		From("teachers t").
		LeftJoin("classes c ON c.id = t.class_id").
		OrderBy("t.full_name")
	if filter.Department != "" {
		builder = builder.Where(squirrel.Eq{"t.department": filter.Department})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"t.full_name": pattern},
			squirrel.ILike{"t.email": pattern},
		})
	}
	var teachers []models.TeacherDetail
	if err := selectBuilt(ctx, r.db, &teachers, builder); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by id.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	query, args, err := psql.Select(teacherColumns...).
		From("teachers t").
		LeftJoin("classes c ON c.id = t.class_id").
		Where(squirrel.Eq{"t.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, query, args...); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// CountByEmail counts teachers using email, optionally excluding one id.
func (r *TeacherRepository) CountByEmail(ctx context.Context, tx *sqlx.Tx, email, excludeID string) (int, error) {
	builder := psql.Select("COUNT(*)").From("teachers").Where("LOWER(email) = LOWER(?)", email)
	if excludeID != "" {
		builder = builder.Where(squirrel.NotEq{"id": excludeID})
	}
	count, err := countBuilt(ctx, tx, builder)
	if err != nil {
		return 0, fmt.Errorf("count teacher email: %w", err)
	}
	return count, nil
}

// Exists checks a teacher reference inside the caller's transaction.
func (r *TeacherRepository) Exists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM teachers WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("check teacher: %w", err)
	}
	return count > 0, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, full_name, email, phone, qualification, department, class_id, is_active, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :qualification, :department, :class_id, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher.
func (r *TeacherRepository) Update(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET full_name = :full_name, email = :email, phone = :phone, qualification = :qualification,
        department = :department, class_id = :class_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return requireAffected(res)
}

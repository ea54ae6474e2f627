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

var subjectColumns = []string{
	"sb.id", "sb.code", "sb.name", "sb.department", "sb.class_id", "sb.teacher_id", "sb.created_at", "sb.updated_at",
	"c.name AS class_name", "t.full_name AS teacher_name",
}

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func subjectSelect() squirrel.SelectBuilder {
	return psql.Select(subjectColumns...).
		From("subjects sb").
		LeftJoin("classes c ON c.id = sb.class_id").
		LeftJoin("teachers t ON t.id = sb.teacher_id")
}

// List returns subjects matching filter ordered by code.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error) {
	builder := subjectSelect().OrderBy("sb.code")
	if filter.Department != "" {
		builder = builder.Where(squirrel.Eq{"sb.department": filter.Department})
	}
	if filter.ClassID != "" {
		builder = builder.Where(squirrel.Eq{"sb.class_id": filter.ClassID})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"sb.name": pattern},
			squirrel.ILike{"sb.code": pattern},
		})
	}
	var subjects []models.SubjectDetail
	if err := selectBuilt(ctx, r.db, &subjects, builder); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID fetches a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	query, args, err := subjectSelect().Where(squirrel.Eq{"sb.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var subject models.SubjectDetail
	if err := r.db.GetContext(ctx, &subject, query, args...); err != nil {
		return nil, err
	}
	return &subject, nil
}

// CountByCode counts subjects using code, optionally excluding one id.
func (r *SubjectRepository) CountByCode(ctx context.Context, tx *sqlx.Tx, code, excludeID string) (int, error) {
	builder := psql.Select("COUNT(*)").From("subjects").Where(squirrel.Eq{"code": code})
	if excludeID != "" {
		builder = builder.Where(squirrel.NotEq{"id": excludeID})
	}
	count, err := countBuilt(ctx, tx, builder)
	if err != nil {
		return 0, fmt.Errorf("count subject code: %w", err)
	}
	return count, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, code, name, department, class_id, teacher_id, created_at, updated_at)
        VALUES (:id, :code, :name, :department, :class_id, :teacher_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, department = :department, class_id = :class_id,
        teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return requireAffected(res)
}

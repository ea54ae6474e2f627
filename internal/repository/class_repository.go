package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

// ClassRepository reads the seeded class list.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns every class ordered by level then name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, `SELECT id, name, level FROM classes ORDER BY level, name`); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// Exists checks a class reference inside the caller's transaction.
func (r *ClassRepository) Exists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("check class: %w", err)
	}
	return count > 0, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

// DashboardRepository runs the aggregate queries behind the home page.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary computes counts and the money totals between from (inclusive) and to (exclusive).
func (r *DashboardRepository) Summary(ctx context.Context, from, to time.Time) (*models.DashboardSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students WHERE is_active) AS active_students,
        (SELECT COUNT(*) FROM teachers WHERE is_active) AS active_teachers,
        (SELECT COUNT(*) FROM subjects) AS subjects,
        (SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE expense_date >= $1 AND expense_date < $2) AS month_expenses,
        (SELECT COALESCE(SUM(amount), 0) FROM fee_payments WHERE payment_date >= $1 AND payment_date < $2) AS month_fee_collection,
        (SELECT COUNT(*) FROM expenses WHERE approved_by IS NULL) AS pending_approvals`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query, from, to); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return &summary, nil
}

// Ping checks database connectivity.
func (r *DashboardRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

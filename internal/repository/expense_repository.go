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

var expenseColumns = []string{
	"e.id", "e.voucher_no", "e.amount", "e.reason", "e.expense_date", "e.category", "e.created_by", "e.approved_by",
	"e.approved_at", "e.created_at", "e.updated_at", "cu.full_name AS creator_name", "au.full_name AS approver_name",
}

// ExpenseRepository persists expense vouchers.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs an ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func expenseSelect() squirrel.SelectBuilder {
	return psql.Select(expenseColumns...).
		From("expenses e").
		Join("users cu ON cu.id = e.created_by").
		LeftJoin("users au ON au.id = e.approved_by")
}

// List returns expenses newest first.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseDetail, error) {
	builder := expenseSelect().OrderBy("e.expense_date DESC", "e.voucher_no")
	if filter.Category != "" {
		builder = builder.Where(squirrel.Eq{"e.category": filter.Category})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"e.expense_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(squirrel.LtOrEq{"e.expense_date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		builder = builder.Where(squirrel.Or{
			squirrel.ILike{"e.voucher_no": pattern},
			squirrel.ILike{"e.reason": pattern},
		})
	}
	var expenses []models.ExpenseDetail
	if err := selectBuilt(ctx, r.db, &expenses, builder); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// FindByID fetches an expense with creator and approver names.
func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*models.ExpenseDetail, error) {
	query, args, err := expenseSelect().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var expense models.ExpenseDetail
	if err := r.db.GetContext(ctx, &expense, query, args...); err != nil {
		return nil, err
	}
	return &expense, nil
}

// Categories returns the distinct categories already in use.
func (r *ExpenseRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, `SELECT DISTINCT category FROM expenses ORDER BY category`); err != nil {
		return nil, fmt.Errorf("list expense categories: %w", err)
	}
	return categories, nil
}

// CountByVoucher counts expenses using voucherNo, optionally excluding one id.
func (r *ExpenseRepository) CountByVoucher(ctx context.Context, tx *sqlx.Tx, voucherNo, excludeID string) (int, error) {
	builder := psql.Select("COUNT(*)").From("expenses").Where(squirrel.Eq{"voucher_no": voucherNo})
	if excludeID != "" {
		builder = builder.Where(squirrel.NotEq{"id": excludeID})
	}
	count, err := countBuilt(ctx, tx, builder)
	if err != nil {
		return 0, fmt.Errorf("count voucher number: %w", err)
	}
	return count, nil
}

// Create inserts an expense.
func (r *ExpenseRepository) Create(ctx context.Context, tx *sqlx.Tx, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	const query = `INSERT INTO expenses (id, voucher_no, amount, reason, expense_date, category, created_by, created_at, updated_at)
        VALUES (:id, :voucher_no, :amount, :reason, :expense_date, :category, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// Update modifies the editable fields of an expense.
func (r *ExpenseRepository) Update(ctx context.Context, tx *sqlx.Tx, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().UTC()
	const query = `UPDATE expenses SET voucher_no = :voucher_no, amount = :amount, reason = :reason, expense_date = :expense_date,
        category = :category, updated_at = :updated_at WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, expense)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res)
}

// Approve signs an unapproved expense. sql.ErrNoRows means it was missing or already approved.
func (r *ExpenseRepository) Approve(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE expenses SET approved_by = $2, approved_at = $3, updated_at = $3 WHERE id = $1 AND approved_by IS NULL`, id, approverID, at)
	if err != nil {
		return fmt.Errorf("approve expense: %w", err)
	}
	return requireAffected(res)
}

// Lock loads an expense row FOR UPDATE inside tx.
func (r *ExpenseRepository) Lock(ctx context.Context, tx *sqlx.Tx, id string) (*models.Expense, error) {
	var expense models.Expense
	const query = `SELECT id, voucher_no, amount, reason, expense_date, category, created_by, approved_by, approved_at, created_at, updated_at
        FROM expenses WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &expense, query, id); err != nil {
		return nil, err
	}
	return &expense, nil
}

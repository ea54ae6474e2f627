package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type expenseRepository interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseDetail, error)
	FindByID(ctx context.Context, id string) (*models.ExpenseDetail, error)
	Categories(ctx context.Context) ([]string, error)
	CountByVoucher(ctx context.Context, tx *sqlx.Tx, voucherNo, excludeID string) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, expense *models.Expense) error
	Update(ctx context.Context, tx *sqlx.Tx, expense *models.Expense) error
	Approve(ctx context.Context, tx *sqlx.Tx, id, approverID string, at time.Time) error
	Lock(ctx context.Context, tx *sqlx.Tx, id string) (*models.Expense, error)
}

// ExpenseRequest is the expense voucher form.
type ExpenseRequest struct {
	VoucherNo   string    `form:"voucher_no" json:"voucher_no" validate:"required,max=32"`
	Amount      float64   `form:"amount" json:"amount" validate:"gt=0,lte=999999999999.99"`
	Reason      string    `form:"reason" json:"reason" validate:"required,max=255"`
	ExpenseDate time.Time `form:"expense_date" json:"expense_date" time_format:"2006-01-02" validate:"required,notfuture"`
	Category    string    `form:"category" json:"category" validate:"required,max=60"`
}

func (r *ExpenseRequest) normalize() {
	r.VoucherNo = strings.ToUpper(strings.TrimSpace(r.VoucherNo))
	r.Amount = roundCents(r.Amount)
	r.Reason = strings.TrimSpace(r.Reason)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
}

// FromExpense fills the edit form from a stored record.
func (r *ExpenseRequest) FromExpense(e models.Expense) {
	r.VoucherNo = e.VoucherNo
	r.Amount = e.Amount
	r.Reason = e.Reason
	r.ExpenseDate = e.ExpenseDate
	r.Category = e.Category
}

// ExpenseList is a filtered list with its total.
type ExpenseList struct {
	Expenses []models.ExpenseDetail
	Total    float64
}

// ExpenseService records and approves expense vouchers.
type ExpenseService struct {
	repo      expenseRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpenseService constructs an ExpenseService.
func NewExpenseService(repo expenseRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, tx: tx, validator: validate, logger: logger, now: time.Now}
}

// List returns expenses with the sum of their amounts.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) (*ExpenseList, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, invalid("date_from must not be after date_to")
	}
	expenses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list expenses")
	}
	list := &ExpenseList{Expenses: expenses}
	for _, e := range expenses {
		list.Total += e.Amount
	}
	return list, nil
}

// Get returns a single expense.
func (s *ExpenseService) Get(ctx context.Context, id string) (*models.ExpenseDetail, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "expense not found", "load expense")
	}
	return expense, nil
}

// Categories returns the categories already in use.
func (s *ExpenseService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, internalErr(err, "failed to list categories")
	}
	return categories, nil
}

// Create records a new expense voucher on behalf of actor.
func (s *ExpenseService) Create(ctx context.Context, req ExpenseRequest, actor *models.SessionUser) (*models.Expense, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	expense := &models.Expense{
		VoucherNo:   req.VoucherNo,
		Amount:      req.Amount,
		Reason:      req.Reason,
		ExpenseDate: req.ExpenseDate,
		Category:    req.Category,
		CreatedBy:   actor.ID,
	}
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkVoucher(ctx, tx, req.VoucherNo, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, expense); err != nil {
			return writeErr(err, "voucher number already exists", "", "create expense")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense recorded",
		zap.String("expense_id", expense.ID),
		zap.String("voucher_no", expense.VoucherNo),
		zap.String("user_id", actor.ID),
	)
	return expense, nil
}

// Update edits an unapproved expense. Approved vouchers are locked.
func (s *ExpenseService) Update(ctx context.Context, id string, req ExpenseRequest, actor *models.SessionUser) (*models.Expense, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	var updated *models.Expense
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		current, err := s.repo.Lock(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, "expense not found", "load expense")
		}
		if current.Approved() {
			return appErrors.Clone(appErrors.ErrConflict, "approved expenses cannot be edited")
		}
		if err := s.checkVoucher(ctx, tx, req.VoucherNo, id); err != nil {
			return err
		}
		current.VoucherNo = req.VoucherNo
		current.Amount = req.Amount
		current.Reason = req.Reason
		current.ExpenseDate = req.ExpenseDate
		current.Category = req.Category
		if err := s.repo.Update(ctx, tx, current); err != nil {
			return writeErr(err, "voucher number already exists", "expense not found", "update expense")
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense updated", zap.String("expense_id", id), zap.String("user_id", actor.ID))
	return updated, nil
}

// Approve signs an expense. Only admins may approve.
func (s *ExpenseService) Approve(ctx context.Context, id string, actor *models.SessionUser) error {
	if !actor.HasRole(models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can approve expenses")
	}
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		current, err := s.repo.Lock(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, "expense not found", "load expense")
		}
		if current.Approved() {
			return appErrors.Clone(appErrors.ErrConflict, "expense already approved")
		}
		if err := s.repo.Approve(ctx, tx, id, actor.ID, s.now().UTC()); err != nil {
			return writeErr(err, "", "expense not found", "approve expense")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("expense approved", zap.String("expense_id", id), zap.String("user_id", actor.ID))
	return nil
}

func (s *ExpenseService) checkVoucher(ctx context.Context, tx *sqlx.Tx, voucherNo, excludeID string) error {
	count, err := s.repo.CountByVoucher(ctx, tx, voucherNo, excludeID)
	if err != nil {
		return internalErr(err, "failed to validate voucher number")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "voucher number already exists")
	}
	return nil
}

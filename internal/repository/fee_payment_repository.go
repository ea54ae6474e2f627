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

var feePaymentColumns = []string{
	"f.id", "f.receipt_no", "f.student_id", "f.amount", "f.payment_method", "f.fee_type", "f.payment_date",
	"f.collected_by", "f.remarks", "f.created_at", "s.admission_no", "s.full_name AS student_name",
	"c.name AS class_name", "u.full_name AS collector_name",
}

// FeePaymentRepository persists fee receipts.
type FeePaymentRepository struct {
	db *sqlx.DB
}

// NewFeePaymentRepository constructs a FeePaymentRepository.
func NewFeePaymentRepository(db *sqlx.DB) *FeePaymentRepository {
	return &FeePaymentRepository{db: db}
}

func feePaymentSelect() squirrel.SelectBuilder {
	return psql.Select(feePaymentColumns...).
		From("fee_payments f").
		Join("students s ON s.id = f.student_id").
		Join("classes c ON c.id = s.class_id").
		Join("users u ON u.id = f.collected_by")
}

// List returns payments newest first.
func (r *FeePaymentRepository) List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentDetail, error) {
	builder := feePaymentSelect().OrderBy("f.payment_date DESC", "f.created_at DESC")
	if filter.StudentID != "" {
		builder = builder.Where(squirrel.Eq{"f.student_id": filter.StudentID})
	}
	if filter.FeeType != "" {
		builder = builder.Where(squirrel.Eq{"f.fee_type": filter.FeeType})
	}
	if filter.DateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"f.payment_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		builder = builder.Where(squirrel.LtOrEq{"f.payment_date": *filter.DateTo})
	}
	var payments []models.FeePaymentDetail
	if err := selectBuilt(ctx, r.db, &payments, builder); err != nil {
		return nil, fmt.Errorf("list fee payments: %w", err)
	}
	return payments, nil
}

// FindByID fetches one receipt.
func (r *FeePaymentRepository) FindByID(ctx context.Context, id string) (*models.FeePaymentDetail, error) {
	query, args, err := feePaymentSelect().Where(squirrel.Eq{"f.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var payment models.FeePaymentDetail
	if err := r.db.GetContext(ctx, &payment, query, args...); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CountByReceipt counts payments using receiptNo.
func (r *FeePaymentRepository) CountByReceipt(ctx context.Context, tx *sqlx.Tx, receiptNo string) (int, error) {
	count, err := countBuilt(ctx, tx, psql.Select("COUNT(*)").From("fee_payments").Where(squirrel.Eq{"receipt_no": receiptNo}))
	if err != nil {
		return 0, fmt.Errorf("count receipt number: %w", err)
	}
	return count, nil
}

// Create inserts a payment.
func (r *FeePaymentRepository) Create(ctx context.Context, tx *sqlx.Tx, payment *models.FeePayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO fee_payments (id, receipt_no, student_id, amount, payment_method, fee_type, payment_date, collected_by, remarks, created_at)
        VALUES (:id, :receipt_no, :student_id, :amount, :payment_method, :fee_type, :payment_date, :collected_by, :remarks, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create fee payment: %w", err)
	}
	return nil
}

// TotalsByStudent sums a student's payments per fee type.
func (r *FeePaymentRepository) TotalsByStudent(ctx context.Context, studentID string) ([]models.FeeTypeTotal, error) {
	var totals []models.FeeTypeTotal
	const query = `SELECT fee_type, SUM(amount) AS total FROM fee_payments WHERE student_id = $1 GROUP BY fee_type ORDER BY fee_type`
	if err := r.db.SelectContext(ctx, &totals, query, studentID); err != nil {
		return nil, fmt.Errorf("sum student fees: %w", err)
	}
	return totals, nil
}

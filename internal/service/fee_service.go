package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

const receiptAttempts = 3

type feePaymentRepository interface {
	List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentDetail, error)
	FindByID(ctx context.Context, id string) (*models.FeePaymentDetail, error)
	CountByReceipt(ctx context.Context, tx *sqlx.Tx, receiptNo string) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, payment *models.FeePayment) error
	TotalsByStudent(ctx context.Context, studentID string) ([]models.FeeTypeTotal, error)
}

type studentStatusRepository interface {
	ActiveStatus(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

// FeePaymentRequest is the payment form. ReceiptNo is optional and generated when blank.
type FeePaymentRequest struct {
	StudentID     string    `form:"student_id" json:"student_id" validate:"required,uuid"`
	Amount        float64   `form:"amount" json:"amount" validate:"gt=0,lte=999999999999.99"`
	PaymentMethod string    `form:"payment_method" json:"payment_method" validate:"required,oneof=cash bank_transfer mobile_money cheque"`
	FeeType       string    `form:"fee_type" json:"fee_type" validate:"required,oneof=tuition transport uniform exam other"`
	PaymentDate   time.Time `form:"payment_date" json:"payment_date" time_format:"2006-01-02" validate:"required,notfuture"`
	ReceiptNo     string    `form:"receipt_no" json:"receipt_no" validate:"max=32"`
	Remarks       string    `form:"remarks" json:"remarks" validate:"max=255"`
}

func (r *FeePaymentRequest) normalize() {
	r.StudentID = strings.ToLower(strings.TrimSpace(r.StudentID))
	r.Amount = roundCents(r.Amount)
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	r.FeeType = strings.ToLower(strings.TrimSpace(r.FeeType))
	r.ReceiptNo = strings.ToUpper(strings.TrimSpace(r.ReceiptNo))
	r.Remarks = strings.TrimSpace(r.Remarks)
}

// FeePaymentList is a filtered list with its total.
type FeePaymentList struct {
	Payments []models.FeePaymentDetail
	Total    float64
}

// FeeSummary is the per-type breakdown shown on the student page.
type FeeSummary struct {
	Totals []models.FeeTypeTotal
	Total  float64
}

// FeeService records fee payments.
type FeeService struct {
	repo      feePaymentRepository
	students  studentStatusRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
	suffix    func() string
}

// NewFeeService constructs a FeeService.
func NewFeeService(repo feePaymentRepository, students studentStatusRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, students: students, tx: tx, validator: validate, logger: logger, suffix: randomReceiptSuffix}
}

// List returns payments with their sum.
func (s *FeeService) List(ctx context.Context, filter models.FeePaymentFilter) (*FeePaymentList, error) {
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, invalid("date_from must not be after date_to")
	}
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list fee payments")
	}
	list := &FeePaymentList{Payments: payments}
	for _, p := range payments {
		list.Total += p.Amount
	}
	return list, nil
}

// Receipt returns one payment for the printable receipt.
func (s *FeeService) Receipt(ctx context.Context, id string) (*models.FeePaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "payment not found", "load payment")
	}
	return payment, nil
}

// StudentSummary totals a student's payments per fee type.
func (s *FeeService) StudentSummary(ctx context.Context, studentID string) (*FeeSummary, error) {
	totals, err := s.repo.TotalsByStudent(ctx, studentID)
	if err != nil {
		return nil, internalErr(err, "failed to summarise fees")
	}
	summary := &FeeSummary{Totals: totals}
	for _, t := range totals {
		summary.Total += t.Total
	}
	return summary, nil
}

// Record stores a payment collected by actor.
func (s *FeeService) Record(ctx context.Context, req FeePaymentRequest, actor *models.SessionUser) (*models.FeePayment, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	payment := &models.FeePayment{
		ReceiptNo:     req.ReceiptNo,
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		FeeType:       req.FeeType,
		PaymentDate:   req.PaymentDate,
		CollectedBy:   actor.ID,
		Remarks:       req.Remarks,
	}
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		active, err := s.students.ActiveStatus(ctx, tx, req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return invalid("student_id does not match a known student")
			}
			return internalErr(err, "failed to validate student")
		}
		if !active {
			return invalid("payments can only be recorded for active students")
		}
		receipt, err := s.resolveReceipt(ctx, tx, req.ReceiptNo)
		if err != nil {
			return err
		}
		payment.ReceiptNo = receipt
		if err := s.repo.Create(ctx, tx, payment); err != nil {
			return writeErr(err, "receipt number already exists", "", "record payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fee payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("receipt_no", payment.ReceiptNo),
		zap.String("user_id", actor.ID),
	)
	return payment, nil
}

// resolveReceipt pre-checks a supplied receipt number or generates an unused one.
func (s *FeeService) resolveReceipt(ctx context.Context, tx *sqlx.Tx, supplied string) (string, error) {
	if supplied != "" {
		count, err := s.repo.CountByReceipt(ctx, tx, supplied)
		if err != nil {
			return "", internalErr(err, "failed to validate receipt number")
		}
		if count > 0 {
			return "", appErrors.Clone(appErrors.ErrConflict, "receipt number already exists")
		}
		return supplied, nil
	}
	for i := 0; i < receiptAttempts; i++ {
		candidate := fmt.Sprintf("RCPT-%s-%s", validation.Today().Format("20060102"), s.suffix())
		count, err := s.repo.CountByReceipt(ctx, tx, candidate)
		if err != nil {
			return "", internalErr(err, "failed to validate receipt number")
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return "", internalErr(errors.New("receipt number space exhausted"), "failed to generate receipt number")
}

func randomReceiptSuffix() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}

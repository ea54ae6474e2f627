package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

const (
	activeStudentID   = "6b1f0c1e-3c5a-4d2b-9f61-1a2b3c4d5e01"
	inactiveStudentID = "6b1f0c1e-3c5a-4d2b-9f61-1a2b3c4d5e02"
	unknownStudentID  = "6b1f0c1e-3c5a-4d2b-9f61-1a2b3c4d5e09"
)

type stubFeeRepo struct {
	takenReceipts map[string]bool
	checked       []string
	created       []models.FeePayment
	totals        []models.FeeTypeTotal
	createErr     error
}

func (s *stubFeeRepo) List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentDetail, error) {
	return nil, nil
}

func (s *stubFeeRepo) FindByID(ctx context.Context, id string) (*models.FeePaymentDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *stubFeeRepo) CountByReceipt(ctx context.Context, tx *sqlx.Tx, receiptNo string) (int, error) {
	s.checked = append(s.checked, receiptNo)
	if s.takenReceipts[receiptNo] {
		return 1, nil
	}
	return 0, nil
}

func (s *stubFeeRepo) Create(ctx context.Context, tx *sqlx.Tx, payment *models.FeePayment) error {
	if s.createErr != nil {
		return s.createErr
	}
	payment.ID = "payment-new"
	s.created = append(s.created, *payment)
	return nil
}

func (s *stubFeeRepo) TotalsByStudent(ctx context.Context, studentID string) ([]models.FeeTypeTotal, error) {
	return s.totals, nil
}

type stubStudentStatus struct {
	active map[string]bool
}

func (s *stubStudentStatus) ActiveStatus(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	active, ok := s.active[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	return active, nil
}

func validFeeRequest() FeePaymentRequest {
	return FeePaymentRequest{
		StudentID:     activeStudentID,
		Amount:        350000,
		PaymentMethod: "Cash",
		FeeType:       "TUITION",
		PaymentDate:   validation.Today(),
	}
}

func newFeeService(t *testing.T, repo *stubFeeRepo) (*FeeService, func(), func()) {
	db, mock := newTxProviderMock(t)
	students := &stubStudentStatus{active: map[string]bool{activeStudentID: true, inactiveStudentID: false}}
	svc := NewFeeService(repo, students, db, nil, nil)
	expectCommit := func() {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	expectRollback := func() {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return svc, expectCommit, expectRollback
}

func TestFeeServiceRecordGeneratesReceipt(t *testing.T) {
	repo := &stubFeeRepo{}
	svc, expectCommit, _ := newFeeService(t, repo)
	svc.suffix = func() string { return "A1B2C3" }
	expectCommit()

	payment, err := svc.Record(context.Background(), validFeeRequest(), cashierUser)
	require.NoError(t, err)
	want := "RCPT-" + validation.Today().Format("20060102") + "-A1B2C3"
	assert.Equal(t, want, payment.ReceiptNo)
	assert.Equal(t, "cash", payment.PaymentMethod)
	assert.Equal(t, "tuition", payment.FeeType)
	assert.Equal(t, cashierUser.ID, payment.CollectedBy)
}

func TestFeeServiceRecordRetriesTakenReceipt(t *testing.T) {
	today := validation.Today().Format("20060102")
	repo := &stubFeeRepo{takenReceipts: map[string]bool{"RCPT-" + today + "-AAAAAA": true}}
	svc, expectCommit, _ := newFeeService(t, repo)
	suffixes := []string{"AAAAAA", "BBBBBB"}
	svc.suffix = func() string {
		next := suffixes[0]
		suffixes = suffixes[1:]
		return next
	}
	expectCommit()

	payment, err := svc.Record(context.Background(), validFeeRequest(), cashierUser)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-"+today+"-BBBBBB", payment.ReceiptNo)
	assert.Len(t, repo.checked, 2)
}

func TestFeeServiceRecordGivesUpAfterAttempts(t *testing.T) {
	today := validation.Today().Format("20060102")
	repo := &stubFeeRepo{takenReceipts: map[string]bool{"RCPT-" + today + "-ZZZZZZ": true}}
	svc, _, expectRollback := newFeeService(t, repo)
	svc.suffix = func() string { return "ZZZZZZ" }
	expectRollback()

	_, err := svc.Record(context.Background(), validFeeRequest(), cashierUser)
	assertAppError(t, err, appErrors.ErrInternal, "failed to generate receipt number")
	assert.Len(t, repo.checked, receiptAttempts)
	assert.Empty(t, repo.created)
}

func TestFeeServiceRecordSuppliedReceiptConflict(t *testing.T) {
	repo := &stubFeeRepo{takenReceipts: map[string]bool{"R-100": true}}
	svc, _, expectRollback := newFeeService(t, repo)
	expectRollback()

	req := validFeeRequest()
	req.ReceiptNo = " r-100 "
	_, err := svc.Record(context.Background(), req, cashierUser)
	assertAppError(t, err, appErrors.ErrConflict, "receipt number already exists")
}

func TestFeeServiceRecordUniqueViolation(t *testing.T) {
	repo := &stubFeeRepo{createErr: uniqueViolation()}
	svc, _, expectRollback := newFeeService(t, repo)
	expectRollback()

	req := validFeeRequest()
	req.ReceiptNo = "R-200"
	_, err := svc.Record(context.Background(), req, cashierUser)
	assertAppError(t, err, appErrors.ErrConflict, "receipt number already exists")
}

func TestFeeServiceRecordStudentChecks(t *testing.T) {
	t.Run("unknown student", func(t *testing.T) {
		svc, _, expectRollback := newFeeService(t, &stubFeeRepo{})
		expectRollback()
		req := validFeeRequest()
		req.StudentID = unknownStudentID
		_, err := svc.Record(context.Background(), req, cashierUser)
		assertAppError(t, err, appErrors.ErrValidation, "student_id does not match a known student")
	})

	t.Run("inactive student", func(t *testing.T) {
		svc, _, expectRollback := newFeeService(t, &stubFeeRepo{})
		expectRollback()
		req := validFeeRequest()
		req.StudentID = inactiveStudentID
		_, err := svc.Record(context.Background(), req, cashierUser)
		assertAppError(t, err, appErrors.ErrValidation, "payments can only be recorded for active students")
	})
}

func TestFeeServiceRecordValidationSkipsTransaction(t *testing.T) {
	svc, _, _ := newFeeService(t, &stubFeeRepo{})

	req := validFeeRequest()
	req.Amount = 0
	_, err := svc.Record(context.Background(), req, cashierUser)
	assertAppError(t, err, appErrors.ErrValidation, "amount must be greater than 0")

	req = validFeeRequest()
	req.PaymentMethod = "bitcoin"
	_, err = svc.Record(context.Background(), req, cashierUser)
	assertAppError(t, err, appErrors.ErrValidation, "")
	assert.True(t, strings.HasPrefix(appErrors.FromError(err).Message, "payment_method must be one of"))
}

func TestFeeServiceRecordRejectsValuesTheSchemaCannotStore(t *testing.T) {
	svc, _, _ := newFeeService(t, &stubFeeRepo{})
	cases := []struct {
		name    string
		mutate  func(r *FeePaymentRequest)
		message string
	}{
		{"sub-cent amount", func(r *FeePaymentRequest) { r.Amount = 0.004 }, "amount must be greater than 0"},
		{"amount above NUMERIC(14,2)", func(r *FeePaymentRequest) { r.Amount = 1e12 }, "amount must be 999,999,999,999.99 or less"},
		{"receipt longer than column", func(r *FeePaymentRequest) { r.ReceiptNo = strings.Repeat("R", 33) }, "receipt_no must be a maximum of 32 characters in length"},
		{"student id not a uuid", func(r *FeePaymentRequest) { r.StudentID = "student-1" }, "student_id must be a valid UUID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validFeeRequest()
			tc.mutate(&req)
			_, err := svc.Record(context.Background(), req, cashierUser)
			assertAppError(t, err, appErrors.ErrValidation, tc.message)
		})
	}
}

func TestFeeServiceStudentSummary(t *testing.T) {
	repo := &stubFeeRepo{totals: []models.FeeTypeTotal{
		{FeeType: models.FeeTuition, Total: 300},
		{FeeType: models.FeeTransport, Total: 45.5},
	}}
	svc := NewFeeService(repo, &stubStudentStatus{}, nil, nil, nil)

	summary, err := svc.StudentSummary(context.Background(), activeStudentID)
	require.NoError(t, err)
	assert.InDelta(t, 345.5, summary.Total, 0.001)
	assert.Len(t, summary.Totals, 2)
}

func TestRandomReceiptSuffix(t *testing.T) {
	suffix := randomReceiptSuffix()
	assert.Len(t, suffix, 6)
	assert.Equal(t, strings.ToUpper(suffix), suffix)
}

package models

import "time"

// Accepted payment methods.
const (
	PaymentCash         = "cash"
	PaymentBankTransfer = "bank_transfer"
	PaymentMobileMoney  = "mobile_money"
	PaymentCheque       = "cheque"
)

// Fee types collected by the bursary.
const (
	FeeTuition   = "tuition"
	FeeTransport = "transport"
	FeeUniform   = "uniform"
	FeeExam      = "exam"
	FeeOther     = "other"
)

// PaymentMethods lists the methods shown in the payment form.
var PaymentMethods = []string{PaymentCash, PaymentBankTransfer, PaymentMobileMoney, PaymentCheque}

// FeeTypes lists the fee types shown in the payment form.
var FeeTypes = []string{FeeTuition, FeeTransport, FeeUniform, FeeExam, FeeOther}

// FeePayment is a receipt for money collected from a student.
type FeePayment struct {
	ID            string    `db:"id" json:"id"`
	ReceiptNo     string    `db:"receipt_no" json:"receipt_no"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Amount        float64   `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	FeeType       string    `db:"fee_type" json:"fee_type"`
	PaymentDate   time.Time `db:"payment_date" json:"payment_date"`
	CollectedBy   string    `db:"collected_by" json:"collected_by"`
	Remarks       string    `db:"remarks" json:"remarks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// FeePaymentDetail joins student and collector names.
type FeePaymentDetail struct {
	FeePayment
	AdmissionNo   string `db:"admission_no" json:"admission_no"`
	StudentName   string `db:"student_name" json:"student_name"`
	ClassName     string `db:"class_name" json:"class_name"`
	CollectorName string `db:"collector_name" json:"collector_name"`
}

// FeePaymentFilter captures the optional GET parameters of the payment list.
type FeePaymentFilter struct {
	StudentID string
	FeeType   string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// FeeTypeTotal is the amount paid by a student for one fee type.
type FeeTypeTotal struct {
	FeeType string  `db:"fee_type" json:"fee_type"`
	Total   float64 `db:"total" json:"total"`
}

package models

import "time"

// Expense is a voucher-backed outgoing payment.
type Expense struct {
	ID          string     `db:"id" json:"id"`
	VoucherNo   string     `db:"voucher_no" json:"voucher_no"`
	Amount      float64    `db:"amount" json:"amount"`
	Reason      string     `db:"reason" json:"reason"`
	ExpenseDate time.Time  `db:"expense_date" json:"expense_date"`
	Category    string     `db:"category" json:"category"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	ApprovedBy  *string    `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Approved reports whether an approver signed the voucher.
func (e Expense) Approved() bool {
	return e.ApprovedBy != nil
}

// ExpenseDetail joins creator and approver names.
type ExpenseDetail struct {
	Expense
	CreatorName  string  `db:"creator_name" json:"creator_name"`
	ApproverName *string `db:"approver_name" json:"approver_name,omitempty"`
}

// ExpenseFilter captures the optional GET parameters of the expense list.
type ExpenseFilter struct {
	Search   string
	Category string
	DateFrom *time.Time
	DateTo   *time.Time
}

package models

import "time"

// DashboardSummary aggregates the counters shown on the home page.
type DashboardSummary struct {
	ActiveStudents     int       `db:"active_students" json:"active_students"`
	ActiveTeachers     int       `db:"active_teachers" json:"active_teachers"`
	Subjects           int       `db:"subjects" json:"subjects"`
	MonthExpenses      float64   `db:"month_expenses" json:"month_expenses"`
	MonthFeeCollection float64   `db:"month_fee_collection" json:"month_fee_collection"`
	PendingApprovals   int       `db:"pending_approvals" json:"pending_approvals"`
	GeneratedAt        time.Time `db:"-" json:"generated_at"`
}

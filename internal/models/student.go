package models

import "time"

// Student represents a learner admitted to the school.
type Student struct {
	ID            string    `db:"id" json:"id"`
	AdmissionNo   string    `db:"admission_no" json:"admission_no"`
	FullName      string    `db:"full_name" json:"full_name"`
	Gender        string    `db:"gender" json:"gender"`
	DateOfBirth   time.Time `db:"date_of_birth" json:"date_of_birth"`
	FatherName    string    `db:"father_name" json:"father_name"`
	MotherName    string    `db:"mother_name" json:"mother_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Address       string    `db:"address" json:"address"`
	ClassID       string    `db:"class_id" json:"class_id"`
	AcademicYear  string    `db:"academic_year" json:"academic_year"`
	Photo         *string   `db:"photo" json:"photo,omitempty"`
	Active        bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the class name for list and detail views.
type StudentDetail struct {
	Student
	ClassName string `db:"class_name" json:"class_name"`
}

// StudentFilter captures the optional GET parameters of the student list.
type StudentFilter struct {
	Search          string
	ClassID         string
	AcademicYear    string
	IncludeInactive bool
	Limit           uint64
}

// StudentOption is the compact shape returned to AJAX dropdowns.
type StudentOption struct {
	ID          string `db:"id" json:"id"`
	AdmissionNo string `db:"admission_no" json:"admission_no"`
	FullName    string `db:"full_name" json:"full_name"`
}

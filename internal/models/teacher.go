package models

import "time"

// Teacher represents a staff member who teaches subjects.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	Phone         string    `db:"phone" json:"phone"`
	Qualification string    `db:"qualification" json:"qualification"`
	Department    string    `db:"department" json:"department"`
	ClassID       *string   `db:"class_id" json:"class_id,omitempty"`
	Active        bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail adds the class the teacher is responsible for.
type TeacherDetail struct {
	Teacher
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}

// TeacherFilter defines filter criteria for listing teachers.
type TeacherFilter struct {
	Search     string
	Department string
}

package models

import "time"

// Subject represents a course offered in the curriculum.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Department string    `db:"department" json:"department"`
	ClassID    *string   `db:"class_id" json:"class_id,omitempty"`
	TeacherID  *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail joins class and teacher names.
type SubjectDetail struct {
	Subject
	ClassName   *string `db:"class_name" json:"class_name,omitempty"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// SubjectFilter defines filter criteria for listing subjects.
type SubjectFilter struct {
	Search     string
	Department string
	ClassID    string
}

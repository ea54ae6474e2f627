package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	CountByEmail(ctx context.Context, tx *sqlx.Tx, email, excludeID string) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
	Update(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
}

// TeacherRequest is the add/edit teacher form.
type TeacherRequest struct {
	FullName      string `form:"full_name" json:"full_name" validate:"required,max=120"`
	Email         string `form:"email" json:"email" validate:"required,email,max=150"`
	Phone         string `form:"phone" json:"phone" validate:"max=32"`
	Qualification string `form:"qualification" json:"qualification" validate:"max=120"`
	Department    string `form:"department" json:"department" validate:"required,max=80"`
	ClassID       string `form:"class_id" json:"class_id" validate:"omitempty,uuid"`
	Active        bool   `form:"is_active" json:"is_active"`
}

func (r *TeacherRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Qualification = strings.TrimSpace(r.Qualification)
	r.Department = strings.TrimSpace(r.Department)
	r.ClassID = strings.ToLower(strings.TrimSpace(r.ClassID))
}

// FromTeacher fills the edit form from a stored record.
func (r *TeacherRequest) FromTeacher(t models.Teacher) {
	r.FullName = t.FullName
	r.Email = t.Email
	r.Phone = t.Phone
	r.Qualification = t.Qualification
	r.Department = t.Department
	r.ClassID = ""
	if t.ClassID != nil {
		r.ClassID = *t.ClassID
	}
	r.Active = t.Active
}

// TeacherService handles teacher CRUD flows.
type TeacherService struct {
	repo      teacherRepository
	classes   classRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, classes classRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, classes: classes, tx: tx, validator: validate, logger: logger}
}

// List returns teachers using filters.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error) {
	teachers, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "teacher not found", "load teacher")
	}
	return teacher, nil
}

// Create inserts a new active teacher.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	req.normalize()
	req.Active = true
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	teacher := teacherFromRequest(req)
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkTeacherRefs(ctx, tx, req, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, teacher); err != nil {
			return writeErr(err, "email already exists", "", "create teacher")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

// Update modifies a teacher record.
func (s *TeacherService) Update(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	teacher := teacherFromRequest(req)
	teacher.ID = id
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkTeacherRefs(ctx, tx, req, id); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, teacher); err != nil {
			return writeErr(err, "email already exists", "teacher not found", "update teacher")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return teacher, nil
}

func (s *TeacherService) checkTeacherRefs(ctx context.Context, tx *sqlx.Tx, req TeacherRequest, excludeID string) error {
	if req.ClassID != "" {
		exists, err := s.classes.Exists(ctx, tx, req.ClassID)
		if err != nil {
			return internalErr(err, "failed to validate class")
		}
		if !exists {
			return invalid("class_id does not match a known class")
		}
	}
	count, err := s.repo.CountByEmail(ctx, tx, req.Email, excludeID)
	if err != nil {
		return internalErr(err, "failed to validate email")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return nil
}

func teacherFromRequest(req TeacherRequest) *models.Teacher {
	return &models.Teacher{
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Qualification: req.Qualification,
		Department:    req.Department,
		ClassID:       optional(req.ClassID),
		Active:        req.Active,
	}
}

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

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error)
	FindByID(ctx context.Context, id string) (*models.SubjectDetail, error)
	CountByCode(ctx context.Context, tx *sqlx.Tx, code, excludeID string) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error
	Update(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error
}

type teacherExistence interface {
	Exists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

// SubjectRequest is the add/edit subject form.
type SubjectRequest struct {
	Code       string `form:"code" json:"code" validate:"required,max=20"`
	Name       string `form:"name" json:"name" validate:"required,max=120"`
	Department string `form:"department" json:"department" validate:"max=80"`
	ClassID    string `form:"class_id" json:"class_id" validate:"omitempty,uuid"`
	TeacherID  string `form:"teacher_id" json:"teacher_id" validate:"omitempty,uuid"`
}

func (r *SubjectRequest) normalize() {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Name = strings.TrimSpace(r.Name)
	r.Department = strings.TrimSpace(r.Department)
	r.ClassID = strings.ToLower(strings.TrimSpace(r.ClassID))
	r.TeacherID = strings.ToLower(strings.TrimSpace(r.TeacherID))
}

// FromSubject fills the edit form from a stored record.
func (r *SubjectRequest) FromSubject(s models.Subject) {
	r.Code = s.Code
	r.Name = s.Name
	r.Department = s.Department
	r.ClassID, r.TeacherID = "", ""
	if s.ClassID != nil {
		r.ClassID = *s.ClassID
	}
	if s.TeacherID != nil {
		r.TeacherID = *s.TeacherID
	}
}

// SubjectService manages subject catalogue operations.
type SubjectService struct {
	repo      subjectRepository
	classes   classRepository
	teachers  teacherExistence
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, classes classRepository, teachers teacherExistence, tx txProvider, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, teachers: teachers, tx: tx, validator: validate, logger: logger}
}

// List returns subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error) {
	subjects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.SubjectDetail, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subject not found", "load subject")
	}
	return subject, nil
}

// Create inserts a subject.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	subject := subjectFromRequest(req)
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkSubjectRefs(ctx, tx, req, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, subject); err != nil {
			return writeErr(err, "subject code already exists", "", "create subject")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

// Update modifies a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	subject := subjectFromRequest(req)
	subject.ID = id
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkSubjectRefs(ctx, tx, req, id); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, subject); err != nil {
			return writeErr(err, "subject code already exists", "subject not found", "update subject")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) checkSubjectRefs(ctx context.Context, tx *sqlx.Tx, req SubjectRequest, excludeID string) error {
	if req.ClassID != "" {
		exists, err := s.classes.Exists(ctx, tx, req.ClassID)
		if err != nil {
			return internalErr(err, "failed to validate class")
		}
		if !exists {
			return invalid("class_id does not match a known class")
		}
	}
	if req.TeacherID != "" {
		exists, err := s.teachers.Exists(ctx, tx, req.TeacherID)
		if err != nil {
			return internalErr(err, "failed to validate teacher")
		}
		if !exists {
			return invalid("teacher_id does not match a known teacher")
		}
	}
	count, err := s.repo.CountByCode(ctx, tx, req.Code, excludeID)
	if err != nil {
		return internalErr(err, "failed to validate subject code")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}
	return nil
}

func subjectFromRequest(req SubjectRequest) *models.Subject {
	return &models.Subject{
		Code:       req.Code,
		Name:       req.Name,
		Department: req.Department,
		ClassID:    optional(req.ClassID),
		TeacherID:  optional(req.TeacherID),
	}
}

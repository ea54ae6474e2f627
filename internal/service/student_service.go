package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

const (
	defaultOptionLimit = 50
	maxOptionLimit     = 200
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	Options(ctx context.Context, filter models.StudentFilter) ([]models.StudentOption, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	CountByAdmissionNo(ctx context.Context, tx *sqlx.Tx, admissionNo, excludeID string) (int, error)
	Create(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	Update(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	Deactivate(ctx context.Context, tx *sqlx.Tx, id string) error
}

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	Exists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

// StudentRequest is the admission and edit form.
type StudentRequest struct {
	AdmissionNo   string    `form:"admission_no" json:"admission_no" validate:"required,max=32"`
	FullName      string    `form:"full_name" json:"full_name" validate:"required,max=120"`
	Gender        string    `form:"gender" json:"gender" validate:"required,oneof=M F"`
	DateOfBirth   time.Time `form:"date_of_birth" json:"date_of_birth" time_format:"2006-01-02" validate:"required,notfuture"`
	FatherName    string    `form:"father_name" json:"father_name" validate:"max=120"`
	MotherName    string    `form:"mother_name" json:"mother_name" validate:"max=120"`
	GuardianPhone string    `form:"guardian_phone" json:"guardian_phone" validate:"max=32"`
	Address       string    `form:"address" json:"address" validate:"max=255"`
	ClassID       string    `form:"class_id" json:"class_id" validate:"required,uuid"`
	AcademicYear  string    `form:"academic_year" json:"academic_year" validate:"required,max=9"`
}

func (r *StudentRequest) normalize() {
	r.AdmissionNo = strings.ToUpper(strings.TrimSpace(r.AdmissionNo))
	r.FullName = strings.TrimSpace(r.FullName)
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	r.FatherName = strings.TrimSpace(r.FatherName)
	r.MotherName = strings.TrimSpace(r.MotherName)
	r.GuardianPhone = strings.TrimSpace(r.GuardianPhone)
	r.Address = strings.TrimSpace(r.Address)
	r.ClassID = strings.ToLower(strings.TrimSpace(r.ClassID))
	r.AcademicYear = strings.TrimSpace(r.AcademicYear)
}

// FromStudent fills the edit form from a stored record.
func (r *StudentRequest) FromStudent(s models.Student) {
	r.AdmissionNo = s.AdmissionNo
	r.FullName = s.FullName
	r.Gender = s.Gender
	r.DateOfBirth = s.DateOfBirth
	r.FatherName = s.FatherName
	r.MotherName = s.MotherName
	r.GuardianPhone = s.GuardianPhone
	r.Address = s.Address
	r.ClassID = s.ClassID
	r.AcademicYear = s.AcademicYear
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	classes   classRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, classes classRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, tx: tx, validator: validate, logger: logger}
}

// List returns students matching filter ordered by name.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	students, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list students")
	}
	return students, nil
}

// Options returns compact rows for dropdowns. Only active students are offered.
func (s *StudentService) Options(ctx context.Context, filter models.StudentFilter) ([]models.StudentOption, error) {
	filter.IncludeInactive = false
	if filter.Limit == 0 {
		filter.Limit = defaultOptionLimit
	}
	if filter.Limit > maxOptionLimit {
		filter.Limit = maxOptionLimit
	}
	options, err := s.repo.Options(ctx, filter)
	if err != nil {
		return nil, internalErr(err, "failed to list students")
	}
	if options == nil {
		options = []models.StudentOption{}
	}
	return options, nil
}

// Classes lists the classes for dropdowns.
func (s *StudentService) Classes(ctx context.Context) ([]models.Class, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, internalErr(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "load student")
	}
	return student, nil
}

// Admit registers a new active student.
func (s *StudentService) Admit(ctx context.Context, req StudentRequest) (*models.Student, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	student := studentFromRequest(req)
	student.Active = true
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkStudentRefs(ctx, tx, req, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, student); err != nil {
			return writeErr(err, "admission number already exists", "", "create student")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("student admitted", zap.String("student_id", student.ID), zap.String("admission_no", student.AdmissionNo))
	return student, nil
}

// Update modifies an existing student record. Active flag and photo are left untouched.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}

	student := studentFromRequest(req)
	student.ID = id
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.checkStudentRefs(ctx, tx, req, id); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, student); err != nil {
			return writeErr(err, "admission number already exists", "student not found", "update student")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// Deactivate soft deletes a student.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.Deactivate(ctx, tx, id); err != nil {
			return writeErr(err, "", "student not found or already inactive", "deactivate student")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("student deactivated", zap.String("student_id", id))
	return nil
}

func (s *StudentService) checkStudentRefs(ctx context.Context, tx *sqlx.Tx, req StudentRequest, excludeID string) error {
	exists, err := s.classes.Exists(ctx, tx, req.ClassID)
	if err != nil {
		return internalErr(err, "failed to validate class")
	}
	if !exists {
		return invalid("class_id does not match a known class")
	}
	count, err := s.repo.CountByAdmissionNo(ctx, tx, req.AdmissionNo, excludeID)
	if err != nil {
		return internalErr(err, "failed to validate admission number")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "admission number already exists")
	}
	return nil
}

func studentFromRequest(req StudentRequest) *models.Student {
	return &models.Student{
		AdmissionNo:   req.AdmissionNo,
		FullName:      req.FullName,
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		FatherName:    req.FatherName,
		MotherName:    req.MotherName,
		GuardianPhone: req.GuardianPhone,
		Address:       req.Address,
		ClassID:       req.ClassID,
		AcademicYear:  req.AcademicYear,
	}
}

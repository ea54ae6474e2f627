package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

type stubStudentRepo struct {
	students      map[string]models.StudentDetail
	options       []models.StudentOption
	admissionDups int
	createErr     error
	deactivateErr error
	created       []models.Student
	updated       []models.Student
	lastFilter    models.StudentFilter
	photos        map[string]string
}

func (s *stubStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	s.lastFilter = filter
	out := make([]models.StudentDetail, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	return out, nil
}

func (s *stubStudentRepo) Options(ctx context.Context, filter models.StudentFilter) ([]models.StudentOption, error) {
	s.lastFilter = filter
	return s.options, nil
}

func (s *stubStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	st, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (s *stubStudentRepo) CountByAdmissionNo(ctx context.Context, tx *sqlx.Tx, admissionNo, excludeID string) (int, error) {
	return s.admissionDups, nil
}

func (s *stubStudentRepo) Create(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if s.createErr != nil {
		return s.createErr
	}
	student.ID = "student-new"
	s.created = append(s.created, *student)
	return nil
}

func (s *stubStudentRepo) Update(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if _, ok := s.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updated = append(s.updated, *student)
	return nil
}

func (s *stubStudentRepo) Deactivate(ctx context.Context, tx *sqlx.Tx, id string) error {
	return s.deactivateErr
}

func (s *stubStudentRepo) UpdatePhoto(ctx context.Context, tx *sqlx.Tx, id, photo string) error {
	if _, ok := s.students[id]; !ok {
		return sql.ErrNoRows
	}
	if s.photos == nil {
		s.photos = map[string]string{}
	}
	s.photos[id] = photo
	return nil
}

type stubClassRepo struct {
	classes []models.Class
}

func (s *stubClassRepo) List(ctx context.Context) ([]models.Class, error) {
	return s.classes, nil
}

func (s *stubClassRepo) Exists(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	for _, c := range s.classes {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

const (
	testClassID      = "3a9e7d20-1f4b-4c6e-8a2d-000000000101"
	unknownClassID   = "3a9e7d20-1f4b-4c6e-8a2d-000000000109"
	knownTeacherID   = "3a9e7d20-1f4b-4c6e-8a2d-000000000201"
	unknownTeacherID = "3a9e7d20-1f4b-4c6e-8a2d-000000000209"
)

func newClassRepo() *stubClassRepo {
	return &stubClassRepo{classes: []models.Class{{ID: testClassID, Name: "Form 1A", Level: "1"}}}
}

func validStudentRequest() StudentRequest {
	return StudentRequest{
		AdmissionNo:  " adm-001 ",
		FullName:     "  Amina Yusuf ",
		Gender:       "f",
		DateOfBirth:  time.Date(2010, 3, 14, 0, 0, 0, 0, time.UTC),
		ClassID:      testClassID,
		AcademicYear: "2025/2026",
	}
}

func TestStudentServiceAdmitCommits(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	student, err := svc.Admit(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.Equal(t, "student-new", student.ID)
	assert.True(t, student.Active)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "ADM-001", repo.created[0].AdmissionNo)
	assert.Equal(t, "Amina Yusuf", repo.created[0].FullName)
	assert.Equal(t, "F", repo.created[0].Gender)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitValidationSkipsTransaction(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	req := validStudentRequest()
	req.DateOfBirth = validation.Today().AddDate(0, 0, 3)

	_, err := svc.Admit(context.Background(), req)
	assertAppError(t, err, appErrors.ErrValidation, "date_of_birth cannot be in the future")
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitRejectsUnknownClass(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	req := validStudentRequest()
	req.ClassID = unknownClassID

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Admit(context.Background(), req)
	assertAppError(t, err, appErrors.ErrValidation, "class_id does not match a known class")
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitRejectsMalformedClassBeforeTransaction(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	req := validStudentRequest()
	req.ClassID = "class-x"

	_, err := svc.Admit(context.Background(), req)
	assertAppError(t, err, appErrors.ErrValidation, "class_id must be a valid UUID")
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAcceptsUppercaseClassID(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()

	req := validStudentRequest()
	req.ClassID = strings.ToUpper(testClassID)

	_, err := svc.Admit(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, testClassID, repo.created[0].ClassID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitDuplicateRollsBack(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{admissionDups: 1}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Admit(context.Background(), validStudentRequest())
	assertAppError(t, err, appErrors.ErrConflict, "admission number already exists")
	assert.Empty(t, repo.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitUniqueViolationIsConflict(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{createErr: uniqueViolation()}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Admit(context.Background(), validStudentRequest())
	assertAppError(t, err, appErrors.ErrConflict, "admission number already exists")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceAdmitDatabaseFailureIsInternal(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{createErr: errors.New("pq: relation \"students\" does not exist")}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Admit(context.Background(), validStudentRequest())
	assertAppError(t, err, appErrors.ErrInternal, "failed to create student")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceUpdateMissingStudent(t *testing.T) {
	db, mock := newTxProviderMock(t)
	repo := &stubStudentRepo{students: map[string]models.StudentDetail{}}
	svc := NewStudentService(repo, newClassRepo(), db, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), "missing", validStudentRequest())
	assertAppError(t, err, appErrors.ErrNotFound, "student not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceDeactivate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewStudentService(&stubStudentRepo{}, newClassRepo(), db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		require.NoError(t, svc.Deactivate(context.Background(), "student-1"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already inactive", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewStudentService(&stubStudentRepo{deactivateErr: sql.ErrNoRows}, newClassRepo(), db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := svc.Deactivate(context.Background(), "student-1")
		assertAppError(t, err, appErrors.ErrNotFound, "student not found or already inactive")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStudentServiceOptionsClampsLimit(t *testing.T) {
	repo := &stubStudentRepo{}
	svc := NewStudentService(repo, newClassRepo(), nil, nil, nil)

	options, err := svc.Options(context.Background(), models.StudentFilter{Limit: 5000, IncludeInactive: true})
	require.NoError(t, err)
	assert.NotNil(t, options)
	assert.Empty(t, options)
	assert.Equal(t, uint64(maxOptionLimit), repo.lastFilter.Limit)
	assert.False(t, repo.lastFilter.IncludeInactive)

	_, err = svc.Options(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(defaultOptionLimit), repo.lastFilter.Limit)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(&stubStudentRepo{}, newClassRepo(), nil, nil, nil)
	_, err := svc.Get(context.Background(), "nope")
	assertAppError(t, err, appErrors.ErrNotFound, "student not found")
}

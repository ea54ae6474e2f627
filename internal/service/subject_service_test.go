package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

type stubSubjectRepo struct {
	codeDups int
	created  []models.Subject
}

func (s *stubSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error) {
	return nil, nil
}

func (s *stubSubjectRepo) FindByID(ctx context.Context, id string) (*models.SubjectDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *stubSubjectRepo) CountByCode(ctx context.Context, tx *sqlx.Tx, code, excludeID string) (int, error) {
	return s.codeDups, nil
}

func (s *stubSubjectRepo) Create(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error {
	subject.ID = "subject-new"
	s.created = append(s.created, *subject)
	return nil
}

func (s *stubSubjectRepo) Update(ctx context.Context, tx *sqlx.Tx, subject *models.Subject) error {
	return sql.ErrNoRows
}

func TestSubjectServiceCreate(t *testing.T) {
	teachers := &stubTeacherRepo{exists: map[string]bool{knownTeacherID: true}}

	t.Run("success", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		repo := &stubSubjectRepo{}
		svc := NewSubjectService(repo, newClassRepo(), teachers, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		subject, err := svc.Create(context.Background(), SubjectRequest{Code: " mth101 ", Name: "Mathematics", ClassID: testClassID, TeacherID: knownTeacherID})
		require.NoError(t, err)
		assert.Equal(t, "MTH101", subject.Code)
		require.NotNil(t, subject.TeacherID)
		assert.Equal(t, knownTeacherID, *subject.TeacherID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown teacher", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewSubjectService(&stubSubjectRepo{}, newClassRepo(), teachers, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), SubjectRequest{Code: "MTH101", Name: "Mathematics", TeacherID: unknownTeacherID})
		assertAppError(t, err, appErrors.ErrValidation, "teacher_id does not match a known teacher")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate code", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewSubjectService(&stubSubjectRepo{codeDups: 1}, newClassRepo(), teachers, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Create(context.Background(), SubjectRequest{Code: "MTH101", Name: "Mathematics"})
		assertAppError(t, err, appErrors.ErrConflict, "subject code already exists")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing name", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewSubjectService(&stubSubjectRepo{}, newClassRepo(), teachers, db, nil, nil)

		_, err := svc.Create(context.Background(), SubjectRequest{Code: "MTH101"})
		assertAppError(t, err, appErrors.ErrValidation, "name is a required field")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("teacher id that is not a uuid", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewSubjectService(&stubSubjectRepo{}, newClassRepo(), teachers, db, nil, nil)

		_, err := svc.Create(context.Background(), SubjectRequest{Code: "MTH101", Name: "Mathematics", TeacherID: "teacher-1"})
		assertAppError(t, err, appErrors.ErrValidation, "teacher_id must be a valid UUID")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubjectServiceUpdateMissing(t *testing.T) {
	db, mock := newTxProviderMock(t)
	svc := NewSubjectService(&stubSubjectRepo{}, newClassRepo(), &stubTeacherRepo{}, db, nil, nil)
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), "subject-9", SubjectRequest{Code: "MTH101", Name: "Mathematics"})
	assertAppError(t, err, appErrors.ErrNotFound, "subject not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

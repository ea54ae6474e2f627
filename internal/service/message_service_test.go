package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

type stubMessageRepo struct {
	lastFilter models.MessageFilter
	unread     int
	markErr    error
	sent       []models.Message
}

func (s *stubMessageRepo) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubMessageRepo) CountUnread(ctx context.Context, receiverID string) (int, error) {
	return s.unread, nil
}

func (s *stubMessageRepo) MarkRead(ctx context.Context, tx *sqlx.Tx, id, receiverID string) error {
	return s.markErr
}

func (s *stubMessageRepo) Create(ctx context.Context, tx *sqlx.Tx, message *models.Message) error {
	message.ID = "message-new"
	s.sent = append(s.sent, *message)
	return nil
}

type stubRecipients struct {
	active map[string]bool
}

func (s *stubRecipients) IsActive(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	return s.active[id], nil
}

func TestMessageServiceSend(t *testing.T) {
	recipients := &stubRecipients{active: map[string]bool{adminUser.ID: true}}

	t.Run("delivers", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		repo := &stubMessageRepo{}
		svc := NewMessageService(repo, recipients, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		msg, err := svc.Send(context.Background(), MessageRequest{ReceiverID: adminUser.ID, Subject: " Toner ", Body: "Please approve V-1001."}, cashierUser)
		require.NoError(t, err)
		assert.Equal(t, "Toner", msg.Subject)
		assert.Equal(t, cashierUser.ID, msg.SenderID)
		assert.Len(t, repo.sent, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("to self", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewMessageService(&stubMessageRepo{}, recipients, db, nil, nil)

		_, err := svc.Send(context.Background(), MessageRequest{ReceiverID: adminUser.ID, Subject: "Hi", Body: "Hi"}, adminUser)
		assertAppError(t, err, appErrors.ErrValidation, "you cannot send a message to yourself")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive receiver", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewMessageService(&stubMessageRepo{}, recipients, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		_, err := svc.Send(context.Background(), MessageRequest{ReceiverID: "0d6c1a3e-5b7f-4c2a-8e10-000000000099", Subject: "Hi", Body: "Hi"}, adminUser)
		assertAppError(t, err, appErrors.ErrValidation, "receiver_id does not match an active user")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("receiver id that is not a uuid", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewMessageService(&stubMessageRepo{}, recipients, db, nil, nil)

		_, err := svc.Send(context.Background(), MessageRequest{ReceiverID: "user-gone", Subject: "Hi", Body: "Hi"}, adminUser)
		assertAppError(t, err, appErrors.ErrValidation, "receiver_id must be a valid UUID")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageServiceMarkRead(t *testing.T) {
	t.Run("own message", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewMessageService(&stubMessageRepo{}, &stubRecipients{}, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectCommit()

		require.NoError(t, svc.MarkRead(context.Background(), "message-1", adminUser.ID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("someone else's message", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		svc := NewMessageService(&stubMessageRepo{markErr: sql.ErrNoRows}, &stubRecipients{}, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := svc.MarkRead(context.Background(), "message-1", teacherUser.ID)
		assertAppError(t, err, appErrors.ErrNotFound, "message not found")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("id that is not a uuid", func(t *testing.T) {
		db, mock := newTxProviderMock(t)
		malformed := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
		svc := NewMessageService(&stubMessageRepo{markErr: malformed}, &stubRecipients{}, db, nil, nil)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := svc.MarkRead(context.Background(), "abc", teacherUser.ID)
		assertAppError(t, err, appErrors.ErrNotFound, "message not found")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageServiceRecentLimits(t *testing.T) {
	repo := &stubMessageRepo{}
	svc := NewMessageService(repo, &stubRecipients{}, nil, nil, nil)

	messages, err := svc.Recent(context.Background(), adminUser.ID, true, 0)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Equal(t, uint64(defaultMessageLimit), repo.lastFilter.Limit)
	assert.True(t, repo.lastFilter.UnreadOnly)
	assert.Equal(t, adminUser.ID, repo.lastFilter.ReceiverID)

	_, err = svc.Recent(context.Background(), adminUser.ID, false, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(maxMessageLimit), repo.lastFilter.Limit)
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-web/internal/models"
)

// MessageRepository stores inbox messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// List returns messages received by filter.ReceiverID newest first.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, error) {
	builder := psql.Select("m.id", "m.sender_id", "m.receiver_id", "m.subject", "m.body", "m.is_read", "m.read_at", "m.created_at", "u.full_name AS sender_name").
		From("messages m").
		Join("users u ON u.id = m.sender_id").
		Where(squirrel.Eq{"m.receiver_id": filter.ReceiverID}).
		OrderBy("m.created_at DESC")
	if filter.UnreadOnly {
		builder = builder.Where(squirrel.Eq{"m.is_read": false})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}
	var messages []models.MessageDetail
	if err := selectBuilt(ctx, r.db, &messages, builder); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// CountUnread counts unread messages for receiverID.
func (r *MessageRepository) CountUnread(ctx context.Context, receiverID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = false`, receiverID); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead flags a message as read when it belongs to receiverID. sql.ErrNoRows means no such message for that user.
func (r *MessageRepository) MarkRead(ctx context.Context, tx *sqlx.Tx, id, receiverID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE messages SET is_read = true, read_at = COALESCE(read_at, $3) WHERE id = $1 AND receiver_id = $2`, id, receiverID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return requireAffected(res)
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, tx *sqlx.Tx, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO messages (id, sender_id, receiver_id, subject, body, is_read, created_at)
        VALUES (:id, :sender_id, :receiver_id, :subject, :body, :is_read, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

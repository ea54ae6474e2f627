package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/pkg/validation"
)

const (
	defaultMessageLimit = 10
	maxMessageLimit     = 100
)

type messageRepository interface {
	List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, error)
	CountUnread(ctx context.Context, receiverID string) (int, error)
	MarkRead(ctx context.Context, tx *sqlx.Tx, id, receiverID string) error
	Create(ctx context.Context, tx *sqlx.Tx, message *models.Message) error
}

type recipientRepository interface {
	IsActive(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

// MessageRequest is the compose form.
type MessageRequest struct {
	ReceiverID string `form:"receiver_id" json:"receiver_id" validate:"required,uuid"`
	Subject    string `form:"subject" json:"subject" validate:"required,max=150"`
	Body       string `form:"body" json:"body" validate:"required,max=5000"`
}

func (r *MessageRequest) normalize() {
	r.ReceiverID = strings.ToLower(strings.TrimSpace(r.ReceiverID))
	r.Subject = strings.TrimSpace(r.Subject)
	r.Body = strings.TrimSpace(r.Body)
}

// MessageService implements the inbox.
type MessageService struct {
	repo      messageRepository
	users     recipientRepository
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(repo messageRepository, users recipientRepository, tx txProvider, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validation.Validate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, users: users, tx: tx, validator: validate, logger: logger}
}

// Inbox lists every message received by userID, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.MessageDetail, error) {
	messages, err := s.repo.List(ctx, models.MessageFilter{ReceiverID: userID})
	if err != nil {
		return nil, internalErr(err, "failed to load inbox")
	}
	return messages, nil
}

// Recent returns up to limit messages, optionally unread only, for the header dropdown.
func (s *MessageService) Recent(ctx context.Context, userID string, unreadOnly bool, limit uint64) ([]models.MessageDetail, error) {
	if limit == 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	messages, err := s.repo.List(ctx, models.MessageFilter{ReceiverID: userID, UnreadOnly: unreadOnly, Limit: limit})
	if err != nil {
		return nil, internalErr(err, "failed to load messages")
	}
	if messages == nil {
		messages = []models.MessageDetail{}
	}
	return messages, nil
}

// UnreadCount counts unread messages for userID.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, internalErr(err, "failed to count unread messages")
	}
	return count, nil
}

// MarkRead marks a message read. Messages addressed to someone else are reported as not found.
func (s *MessageService) MarkRead(ctx context.Context, id, userID string) error {
	return withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.repo.MarkRead(ctx, tx, id, userID); err != nil {
			return writeErr(err, "", "message not found", "mark message read")
		}
		return nil
	})
}

// Send delivers a message from sender to an active user.
func (s *MessageService) Send(ctx context.Context, req MessageRequest, sender *models.SessionUser) (*models.Message, error) {
	req.normalize()
	if err := validateRequest(s.validator, req); err != nil {
		return nil, err
	}
	if req.ReceiverID == sender.ID {
		return nil, invalid("you cannot send a message to yourself")
	}
	message := &models.Message{
		SenderID:   sender.ID,
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Body:       req.Body,
	}
	err := withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		active, err := s.users.IsActive(ctx, tx, req.ReceiverID)
		if err != nil {
			return internalErr(err, "failed to validate recipient")
		}
		if !active {
			return invalid("receiver_id does not match an active user")
		}
		if err := s.repo.Create(ctx, tx, message); err != nil {
			return writeErr(err, "", "", "send message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

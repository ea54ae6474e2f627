package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

const defaultMessageLimit = 20

type messageService interface {
	Inbox(ctx context.Context, userID string) ([]models.MessageDetail, error)
	Recent(ctx context.Context, userID string, unreadOnly bool, limit uint64) ([]models.MessageDetail, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	Send(ctx context.Context, req service.MessageRequest, sender *models.SessionUser) (*models.Message, error)
}

type contactService interface {
	Contacts(ctx context.Context, userID string) ([]models.Contact, error)
}

// UnreadCountResponse is polled by the navigation badge.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// MessagesResponse lists inbox messages.
type MessagesResponse struct {
	Messages []models.MessageDetail `json:"messages"`
}

// MessageHandler serves the inbox page and the message JSON endpoints.
type MessageHandler struct {
	messages messageService
	contacts contactService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages messageService, contacts contactService) *MessageHandler {
	return &MessageHandler{messages: messages, contacts: contacts}
}

// Inbox renders received messages and the compose form.
func (h *MessageHandler) Inbox(c *gin.Context) {
	h.renderInbox(c, http.StatusOK, service.MessageRequest{}, "")
}

// Send handles the compose form.
func (h *MessageHandler) Send(c *gin.Context) {
	var req service.MessageRequest
	if !submitted(c, "send_message") {
		h.renderInbox(c, http.StatusOK, req, msgInvalidSubmission)
		return
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderInbox(c, http.StatusOK, req, msgInvalidSubmission)
		return
	}
	if _, err := h.messages.Send(c.Request.Context(), req, middleware.CurrentUser(c)); err != nil {
		status, message := formFailure(c, err)
		h.renderInbox(c, status, req, message)
		return
	}
	redirectWithFlash(c, "/messages", middleware.FlashSuccess, "message sent")
}

// UnreadCount godoc
// @Summary Unread message count
// @Tags Messages
// @Produce json
// @Success 200 {object} handler.UnreadCountResponse
// @Failure 401 {object} response.ErrorBody
// @Router /api/messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, UnreadCountResponse{Count: count})
}

// Recent godoc
// @Summary Recent inbox messages
// @Tags Messages
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Param limit query int false "Maximum rows (default 20)"
// @Success 200 {object} handler.MessagesResponse
// @Failure 401 {object} response.ErrorBody
// @Router /api/messages [get]
func (h *MessageHandler) Recent(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"
	messages, err := h.messages.Recent(c.Request.Context(), middleware.CurrentUser(c).ID, unreadOnly, limitParam(c, defaultMessageLimit))
	if err != nil {
		response.Error(c, err)
		return
	}
	if messages == nil {
		messages = []models.MessageDetail{}
	}
	response.JSON(c, http.StatusOK, MessagesResponse{Messages: messages})
}

// MarkRead godoc
// @Summary Mark a received message as read
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} response.Success
// @Failure 404 {object} response.ErrorBody
// @Router /api/messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.messages.MarkRead(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c)
}

func (h *MessageHandler) renderInbox(c *gin.Context, status int, req service.MessageRequest, message string) {
	ctx := c.Request.Context()
	user := middleware.CurrentUser(c)
	messages, err := h.messages.Inbox(ctx, user.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	contacts, err := h.contacts.Contacts(ctx, user.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	data := gin.H{"Messages": messages, "Contacts": contacts, "Form": req}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "messages", data)
}

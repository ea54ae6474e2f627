package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

type expenseService interface {
	List(ctx context.Context, filter models.ExpenseFilter) (*service.ExpenseList, error)
	Get(ctx context.Context, id string) (*models.ExpenseDetail, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, req service.ExpenseRequest, actor *models.SessionUser) (*models.Expense, error)
	Update(ctx context.Context, id string, req service.ExpenseRequest, actor *models.SessionUser) (*models.Expense, error)
	Approve(ctx context.Context, id string, actor *models.SessionUser) error
}

// ExpenseHandler serves the expense register.
type ExpenseHandler struct {
	service expenseService
}

// NewExpenseHandler constructs an ExpenseHandler.
func NewExpenseHandler(svc expenseService) *ExpenseHandler {
	return &ExpenseHandler{service: svc}
}

// List renders the filtered expenses with their total.
func (h *ExpenseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter := expenseFilter(c)
	list, err := h.service.List(ctx, filter)
	if err != nil {
		renderError(c, err)
		return
	}
	categories, err := h.service.Categories(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "expenses_list", gin.H{
		"List":       list,
		"Categories": categories,
		"Filter":     filter,
		"Query":      exportQuery(c),
	})
}

// NewForm renders an empty expense form dated today.
func (h *ExpenseHandler) NewForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "", service.ExpenseRequest{}, "")
}

// Create handles the new expense form.
func (h *ExpenseHandler) Create(c *gin.Context) {
	req, ok := h.bind(c, "")
	if !ok {
		return
	}
	if _, err := h.service.Create(c.Request.Context(), req, middleware.CurrentUser(c)); err != nil {
		h.fail(c, "", req, err)
		return
	}
	redirectWithFlash(c, "/expenses", middleware.FlashSuccess, "expense "+req.VoucherNo+" recorded")
}

// EditForm renders the form for an unapproved expense.
func (h *ExpenseHandler) EditForm(c *gin.Context) {
	expense, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	if expense.Approved() {
		redirectWithFlash(c, "/expenses", middleware.FlashError, "approved expenses cannot be edited")
		return
	}
	var req service.ExpenseRequest
	req.FromExpense(expense.Expense)
	h.renderForm(c, http.StatusOK, expense.ID, req, "")
}

// Update handles the edit form.
func (h *ExpenseHandler) Update(c *gin.Context) {
	id := c.Param("id")
	req, ok := h.bind(c, id)
	if !ok {
		return
	}
	if _, err := h.service.Update(c.Request.Context(), id, req, middleware.CurrentUser(c)); err != nil {
		h.fail(c, id, req, err)
		return
	}
	redirectWithFlash(c, "/expenses", middleware.FlashSuccess, "expense updated")
}

// Approve signs an expense and returns to the list.
func (h *ExpenseHandler) Approve(c *gin.Context) {
	err := h.service.Approve(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		if appErrors.IsClientError(err) {
			redirectWithFlash(c, "/expenses", middleware.FlashError, appErrors.FromError(err).Message)
			return
		}
		renderError(c, err)
		return
	}
	redirectWithFlash(c, "/expenses", middleware.FlashSuccess, "expense approved")
}

func (h *ExpenseHandler) bind(c *gin.Context, id string) (service.ExpenseRequest, bool) {
	var req service.ExpenseRequest
	if !submitted(c, "save_expense") {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidSubmission)
		return req, false
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidInput)
		return req, false
	}
	return req, true
}

func (h *ExpenseHandler) fail(c *gin.Context, id string, req service.ExpenseRequest, err error) {
	if isNotFound(err) {
		renderError(c, err)
		return
	}
	status, message := formFailure(c, err)
	h.renderForm(c, status, id, req, message)
}

func (h *ExpenseHandler) renderForm(c *gin.Context, status int, id string, req service.ExpenseRequest, message string) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	data := gin.H{"ID": id, "Form": req, "Categories": categories, "Today": today()}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "expenses_form", data)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

type fakeExpenseSrv struct {
	list       *service.ExpenseList
	detail     *models.ExpenseDetail
	createErr  error
	approveErr error
	created    []service.ExpenseRequest
	updatedID  string
	approvedBy *models.SessionUser
	lastFilter models.ExpenseFilter
}

func (f *fakeExpenseSrv) List(_ context.Context, filter models.ExpenseFilter) (*service.ExpenseList, error) {
	f.lastFilter = filter
	if f.list == nil {
		return &service.ExpenseList{}, nil
	}
	return f.list, nil
}

func (f *fakeExpenseSrv) Get(context.Context, string) (*models.ExpenseDetail, error) {
	if f.detail == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "expense not found")
	}
	return f.detail, nil
}

func (f *fakeExpenseSrv) Categories(context.Context) ([]string, error) {
	return []string{"stationery", "utilities"}, nil
}

func (f *fakeExpenseSrv) Create(_ context.Context, req service.ExpenseRequest, _ *models.SessionUser) (*models.Expense, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Expense{ID: "exp-1", VoucherNo: req.VoucherNo}, nil
}

func (f *fakeExpenseSrv) Update(_ context.Context, id string, req service.ExpenseRequest, _ *models.SessionUser) (*models.Expense, error) {
	f.updatedID = id
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Expense{ID: id, VoucherNo: req.VoucherNo}, nil
}

func (f *fakeExpenseSrv) Approve(_ context.Context, _ string, actor *models.SessionUser) error {
	f.approvedBy = actor
	return f.approveErr
}

func expenseEngine(t *testing.T, srv *fakeExpenseSrv, user *models.SessionUser) *gin.Engine {
	h := NewExpenseHandler(srv)
	return newTestEngine(t, user, func(r *gin.Engine) {
		r.GET("/expenses", h.List)
		r.GET("/expenses/new", h.NewForm)
		r.POST("/expenses/new", h.Create)
		r.GET("/expenses/:id/edit", h.EditForm)
		r.POST("/expenses/:id/edit", h.Update)
		r.POST("/expenses/:id/approve", h.Approve)
	})
}

func validExpenseForm() url.Values {
	return url.Values{
		"save_expense": {"1"},
		"voucher_no":   {"v-001"},
		"amount":       {"150000"},
		"reason":       {"Printer paper"},
		"expense_date": {"2025-03-18"},
		"category":     {"stationery"},
	}
}

func TestExpenseListRendersRowsAndTotal(t *testing.T) {
	approver := "Head Admin"
	srv := &fakeExpenseSrv{list: &service.ExpenseList{
		Expenses: []models.ExpenseDetail{
			{Expense: models.Expense{ID: "exp-1", VoucherNo: "V-001", Amount: 1000, Reason: "Chalk", Category: "stationery", ExpenseDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}, CreatorName: "Siti Aminah"},
			{Expense: models.Expense{ID: "exp-2", VoucherNo: "V-002", Amount: 250, Reason: "Water", Category: "utilities", ExpenseDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), ApprovedBy: &approver}, CreatorName: "Siti Aminah", ApproverName: &approver},
		},
		Total: 1250,
	}}
	r := expenseEngine(t, srv, adminUser)

	rec := doGet(r, "/expenses?category=Stationery&date_from=2025-03-01&date_to=bogus")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "V-001")
	assert.Contains(t, body, "1,250.00")
	assert.Contains(t, body, "/expenses/exp-1/approve")
	assert.NotContains(t, body, "/expenses/exp-2/approve")
	assert.Contains(t, body, "/export/expenses?format=csv&category=Stationery")
	assert.Equal(t, "stationery", srv.lastFilter.Category)
	require.NotNil(t, srv.lastFilter.DateFrom)
	assert.Nil(t, srv.lastFilter.DateTo)
}

func TestExpenseListHidesApproveForCashier(t *testing.T) {
	srv := &fakeExpenseSrv{list: &service.ExpenseList{
		Expenses: []models.ExpenseDetail{{Expense: models.Expense{ID: "exp-1", VoucherNo: "V-001", Amount: 10}}},
		Total:    10,
	}}
	r := expenseEngine(t, srv, cashierUser)

	rec := doGet(r, "/expenses")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/approve")
}

func TestExpenseCreateRedirectsWithFlash(t *testing.T) {
	srv := &fakeExpenseSrv{}
	r := expenseEngine(t, srv, cashierUser)

	rec := doPostForm(r, "/expenses/new", validExpenseForm())

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))
	assert.True(t, hasSessionCookie(rec))
	require.Len(t, srv.created, 1)
	assert.Equal(t, 150000.0, srv.created[0].Amount)
	assert.Equal(t, "2025-03-18", srv.created[0].ExpenseDate.Format("2006-01-02"))
}

func TestExpenseCreateWithoutMarkerDoesNotWrite(t *testing.T) {
	srv := &fakeExpenseSrv{}
	r := expenseEngine(t, srv, cashierUser)
	form := validExpenseForm()
	form.Del("save_expense")

	rec := doPostForm(r, "/expenses/new", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid form submission")
	assert.Empty(t, srv.created)
}

func TestExpenseCreateValidationRerendersForm(t *testing.T) {
	srv := &fakeExpenseSrv{createErr: appErrors.Clone(appErrors.ErrValidation, "amount must be greater than 0")}
	r := expenseEngine(t, srv, cashierUser)
	form := validExpenseForm()
	form.Set("amount", "0")

	rec := doPostForm(r, "/expenses/new", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "amount must be greater than 0")
	assert.Contains(t, body, `value="v-001"`)
}

func TestExpenseCreateMalformedAmount(t *testing.T) {
	srv := &fakeExpenseSrv{}
	r := expenseEngine(t, srv, cashierUser)
	form := validExpenseForm()
	form.Set("amount", "a lot")

	rec := doPostForm(r, "/expenses/new", form)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msgInvalidInput)
	assert.Empty(t, srv.created)
}

func TestExpenseCreateInternalErrorHidesDetails(t *testing.T) {
	srv := &fakeExpenseSrv{createErr: errors.New("pq: relation \"expenses\" does not exist")}
	r := expenseEngine(t, srv, cashierUser)

	rec := doPostForm(r, "/expenses/new", validExpenseForm())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), appErrors.ErrInternal.Message)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestExpenseEditFormRedirectsWhenApproved(t *testing.T) {
	approver := "user-admin"
	srv := &fakeExpenseSrv{detail: &models.ExpenseDetail{Expense: models.Expense{ID: "exp-1", ApprovedBy: &approver}}}
	r := expenseEngine(t, srv, cashierUser)

	rec := doGet(r, "/expenses/exp-1/edit")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))
}

func TestExpenseEditFormPrefills(t *testing.T) {
	srv := &fakeExpenseSrv{detail: &models.ExpenseDetail{Expense: models.Expense{
		ID: "exp-1", VoucherNo: "V-009", Amount: 42.5, Reason: "Chalk", Category: "stationery",
		ExpenseDate: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
	}}}
	r := expenseEngine(t, srv, cashierUser)

	rec := doGet(r, "/expenses/exp-1/edit")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/expenses/exp-1/edit"`)
	assert.Contains(t, body, `value="V-009"`)
	assert.Contains(t, body, `value="2025-02-03"`)
}

func TestExpenseUpdateMissingShowsNotFoundPage(t *testing.T) {
	srv := &fakeExpenseSrv{createErr: appErrors.Clone(appErrors.ErrNotFound, "expense not found")}
	r := expenseEngine(t, srv, cashierUser)

	rec := doPostForm(r, "/expenses/exp-404/edit", validExpenseForm())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "expense not found")
	assert.Equal(t, "exp-404", srv.updatedID)
}

func TestExpenseApprove(t *testing.T) {
	srv := &fakeExpenseSrv{}
	r := expenseEngine(t, srv, adminUser)

	rec := doPostForm(r, "/expenses/exp-1/approve", url.Values{})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))
	assert.Equal(t, adminUser, srv.approvedBy)
}

func TestExpenseApproveConflictFlashes(t *testing.T) {
	srv := &fakeExpenseSrv{approveErr: appErrors.Clone(appErrors.ErrConflict, "expense already approved")}
	r := expenseEngine(t, srv, adminUser)

	rec := doPostForm(r, "/expenses/exp-1/approve", url.Values{})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, hasSessionCookie(rec))
}

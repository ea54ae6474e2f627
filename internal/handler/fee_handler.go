package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
	"github.com/noah-isme/sma-adp-web/pkg/export"
)

type feeService interface {
	List(ctx context.Context, filter models.FeePaymentFilter) (*service.FeePaymentList, error)
	Receipt(ctx context.Context, id string) (*models.FeePaymentDetail, error)
	Record(ctx context.Context, req service.FeePaymentRequest, actor *models.SessionUser) (*models.FeePayment, error)
}

type studentLookup interface {
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
}

// FeeHandler serves fee collection pages and receipts.
type FeeHandler struct {
	fees     feeService
	students studentLookup
}

// NewFeeHandler constructs a FeeHandler.
func NewFeeHandler(fees feeService, students studentLookup) *FeeHandler {
	return &FeeHandler{fees: fees, students: students}
}

// List renders the filtered payments with their total.
func (h *FeeHandler) List(c *gin.Context) {
	filter := feeFilter(c)
	list, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "fees_list", gin.H{
		"List":         list,
		"Filter":       filter,
		"FeeTypes":     models.FeeTypes,
		"StudentLabel": h.studentLabel(c, filter.StudentID),
		"Query":        exportQuery(c),
	})
}

// NewForm renders the payment form, optionally preselecting ?student_id.
func (h *FeeHandler) NewForm(c *gin.Context) {
	req := service.FeePaymentRequest{
		StudentID:     idParam(c, "student_id"),
		PaymentMethod: models.PaymentCash,
		FeeType:       models.FeeTuition,
	}
	h.renderForm(c, http.StatusOK, req, "")
}

// Create records a payment and shows its receipt.
func (h *FeeHandler) Create(c *gin.Context) {
	var req service.FeePaymentRequest
	if !submitted(c, "save_payment") {
		h.renderForm(c, http.StatusOK, req, msgInvalidSubmission)
		return
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderForm(c, http.StatusOK, req, msgInvalidInput)
		return
	}
	payment, err := h.fees.Record(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		status, message := formFailure(c, err)
		h.renderForm(c, status, req, message)
		return
	}
	redirectWithFlash(c, "/fees/"+payment.ID+"/receipt", middleware.FlashSuccess, "payment recorded with receipt "+payment.ReceiptNo)
}

// Receipt renders the printable receipt.
func (h *FeeHandler) Receipt(c *gin.Context) {
	payment, err := h.fees.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "fees_receipt", gin.H{"Payment": payment})
}

// ReceiptPDF downloads the receipt as an A5 PDF.
func (h *FeeHandler) ReceiptPDF(c *gin.Context) {
	payment, err := h.fees.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	data, err := export.ReceiptPDF(export.Receipt{
		SchoolName:  c.GetString(schoolNameKey),
		ReceiptNo:   payment.ReceiptNo,
		Date:        export.Date(payment.PaymentDate),
		StudentName: payment.StudentName,
		AdmissionNo: payment.AdmissionNo,
		ClassName:   payment.ClassName,
		FeeType:     payment.FeeType,
		Method:      payment.PaymentMethod,
		Amount:      export.Money(payment.Amount),
		CollectedBy: payment.CollectorName,
		Remarks:     payment.Remarks,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt_`+payment.ReceiptNo+`.pdf"`)
	c.Data(http.StatusOK, export.FormatPDF.ContentType(), data)
}

func (h *FeeHandler) renderForm(c *gin.Context, status int, req service.FeePaymentRequest, message string) {
	data := gin.H{
		"Form":           req,
		"FeeTypes":       models.FeeTypes,
		"PaymentMethods": models.PaymentMethods,
		"StudentLabel":   h.studentLabel(c, req.StudentID),
		"Today":          today(),
	}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "fees_form", data)
}

// studentLabel names the preselected student; unknown ids fall back to the raw id.
func (h *FeeHandler) studentLabel(c *gin.Context, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		return id
	}
	return student.FullName + " (" + student.AdmissionNo + ")"
}

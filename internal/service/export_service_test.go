package service

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/export"
)

type stubFeeList struct {
	payments []models.FeePaymentDetail
	filter   models.FeePaymentFilter
	err      error
}

func (s *stubFeeList) List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentDetail, error) {
	s.filter = filter
	return s.payments, s.err
}

func newExportService(fees *stubFeeList, metrics *MetricsService) *ExportService {
	students := &stubStudentRepo{students: map[string]models.StudentDetail{
		"student-1": {Student: models.Student{AdmissionNo: "ADM-001", FullName: "Amina, Yusuf", Gender: "F", Active: true}, ClassName: "Form 1A"},
	}}
	svc := NewExportService(ExportSources{
		Students: students,
		Teachers: &stubTeacherRepo{},
		Subjects: &stubSubjectRepo{},
		Expenses: &stubExpenseRepo{},
		Fees:     fees,
	}, metrics, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 18, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceFeesCSV(t *testing.T) {
	fees := &stubFeeList{payments: []models.FeePaymentDetail{
		{FeePayment: models.FeePayment{ReceiptNo: "RCPT-1", Amount: 1500000, FeeType: "tuition", PaymentMethod: "cash", PaymentDate: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)}, AdmissionNo: "ADM-001", StudentName: "Amina Yusuf", ClassName: "Form 1A", CollectorName: "Joy"},
		{FeePayment: models.FeePayment{ReceiptNo: "RCPT-2", Amount: 250.5, FeeType: "exam", PaymentMethod: "cheque", PaymentDate: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)}, AdmissionNo: "ADM-002", StudentName: "Ben Otieno", ClassName: "Form 2B", CollectorName: "Joy"},
	}}
	metrics := NewMetricsService()
	svc := newExportService(fees, metrics)

	file, err := svc.Export(context.Background(), ExportFees, export.FormatCSV, ExportFilters{Fees: models.FeePaymentFilter{FeeType: "tuition"}})
	require.NoError(t, err)
	assert.Equal(t, "fee_payments_20250318.csv", file.Filename)
	assert.True(t, file.Attachment)
	assert.Equal(t, "tuition", fees.filter.FeeType)

	rows, err := csv.NewReader(strings.NewReader(string(file.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Receipt No", rows[0][0])
	assert.Equal(t, []string{"RCPT-1", "2025-03-03", "ADM-001", "Amina Yusuf", "Form 1A", "tuition", "cash", "1,500,000.00", "Joy"}, rows[1])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "1,500,250.50", rows[3][7])

	ops := metrics.Snapshot().Operations
	require.Len(t, ops, 1)
	assert.Equal(t, "export_fees", ops[0].Label)
}

func TestExportServiceStudentsHTML(t *testing.T) {
	svc := newExportService(&stubFeeList{}, nil)

	file, err := svc.Export(context.Background(), ExportStudents, export.FormatHTML, ExportFilters{})
	require.NoError(t, err)
	assert.False(t, file.Attachment)
	assert.Contains(t, file.ContentType, "text/html")
	assert.Contains(t, string(file.Data), "Amina, Yusuf")
	assert.Contains(t, string(file.Data), "Active")
}

func TestExportServiceEmptyPDF(t *testing.T) {
	svc := newExportService(&stubFeeList{}, nil)

	file, err := svc.Export(context.Background(), ExportSubjects, export.FormatPDF, ExportFilters{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF-"))
}

func TestExportServiceErrors(t *testing.T) {
	svc := newExportService(&stubFeeList{err: errors.New("boom")}, nil)
	ctx := context.Background()

	_, err := svc.Export(ctx, "grades", export.FormatCSV, ExportFilters{})
	assertAppError(t, err, appErrors.ErrNotFound, "unknown export type")

	_, err = svc.Export(ctx, ExportStudents, export.Format("docx"), ExportFilters{})
	assertAppError(t, err, appErrors.ErrUnsupportedFormat, "")
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)

	_, err = svc.Export(ctx, ExportFees, export.FormatCSV, ExportFilters{})
	assertAppError(t, err, appErrors.ErrInternal, "failed to load fee payments")
}

func TestExportServiceCanExport(t *testing.T) {
	svc := newExportService(&stubFeeList{}, nil)

	assert.True(t, svc.CanExport(ExportStudents, models.RoleTeacher))
	assert.False(t, svc.CanExport(ExportFees, models.RoleTeacher))
	assert.True(t, svc.CanExport(ExportExpenses, models.RoleCashier))
	assert.False(t, svc.CanExport(ExportSubjects, models.RoleCashier))
	assert.True(t, svc.CanExport(ExportFees, models.RoleAdmin))
	assert.False(t, svc.CanExport("grades", models.RoleAdmin))
	assert.True(t, svc.Exportable(ExportFees))
	assert.False(t, svc.Exportable("grades"))
}

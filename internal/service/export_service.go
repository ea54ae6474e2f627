package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/export"
)

// Exportable entities.
const (
	ExportStudents = "students"
	ExportTeachers = "teachers"
	ExportSubjects = "subjects"
	ExportExpenses = "expenses"
	ExportFees     = "fees"
)

// exportReadRoles mirrors the read access of each entity's list page.
var exportReadRoles = map[string][]models.UserRole{
	ExportStudents: {models.RoleAdmin, models.RoleTeacher},
	ExportTeachers: {models.RoleAdmin, models.RoleTeacher},
	ExportSubjects: {models.RoleAdmin, models.RoleTeacher},
	ExportExpenses: {models.RoleAdmin, models.RoleCashier},
	ExportFees:     {models.RoleAdmin, models.RoleCashier},
}

type studentSource interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
}

type teacherSource interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error)
}

type subjectSource interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error)
}

type expenseSource interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.ExpenseDetail, error)
}

type feeSource interface {
	List(ctx context.Context, filter models.FeePaymentFilter) ([]models.FeePaymentDetail, error)
}

// ExportFilters carries the list filters of every entity; only the requested entity's are used.
type ExportFilters struct {
	Students models.StudentFilter
	Teachers models.TeacherFilter
	Subjects models.SubjectFilter
	Expenses models.ExpenseFilter
	Fees     models.FeePaymentFilter
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Attachment  bool
	Data        []byte
}

// ExportSources groups the list queries the exporter reads from.
type ExportSources struct {
	Students studentSource
	Teachers teacherSource
	Subjects subjectSource
	Expenses expenseSource
	Fees     feeSource
}

// ExportService turns list queries into CSV, PDF, XLSX or printable HTML.
type ExportService struct {
	src     ExportSources
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(src ExportSources, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{src: src, metrics: metrics, logger: logger, now: time.Now}
}

// Exportable reports whether entity names a list that can be exported.
func (s *ExportService) Exportable(entity string) bool {
	_, ok := exportReadRoles[entity]
	return ok
}

// CanExport reports whether role may export entity.
func (s *ExportService) CanExport(entity string, role models.UserRole) bool {
	for _, r := range exportReadRoles[entity] {
		if r == role {
			return true
		}
	}
	return false
}

// Export renders entity rows matching filters in format.
func (s *ExportService) Export(ctx context.Context, entity string, format export.Format, filters ExportFilters) (*ExportFile, error) {
	if !s.Exportable(entity) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown export type")
	}

	var file *ExportFile
	err := s.metrics.Time("export_"+entity, func() error {
		table, err := s.table(ctx, entity, filters)
		if err != nil {
			return err
		}
		data, err := export.Render(format, table)
		if err != nil {
			if errors.Is(err, export.ErrUnsupportedFormat) {
				return appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, appErrors.ErrUnsupportedFormat.Message)
			}
			return internalErr(err, "failed to render export")
		}
		file = &ExportFile{
			Filename:    export.Filename(table.Title, format, s.now()),
			ContentType: format.ContentType(),
			Attachment:  format.Attachment(),
			Data:        data,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("export generated", zap.String("entity", entity), zap.String("format", string(format)), zap.Int("bytes", len(file.Data)))
	return file, nil
}

func (s *ExportService) table(ctx context.Context, entity string, filters ExportFilters) (export.Table, error) {
	switch entity {
	case ExportStudents:
		return s.studentTable(ctx, filters.Students)
	case ExportTeachers:
		return s.teacherTable(ctx, filters.Teachers)
	case ExportSubjects:
		return s.subjectTable(ctx, filters.Subjects)
	case ExportExpenses:
		return s.expenseTable(ctx, filters.Expenses)
	default:
		return s.feeTable(ctx, filters.Fees)
	}
}

func (s *ExportService) studentTable(ctx context.Context, filter models.StudentFilter) (export.Table, error) {
	students, err := s.src.Students.List(ctx, filter)
	if err != nil {
		return export.Table{}, internalErr(err, "failed to load students")
	}
	table := export.Table{
		Title:   "Students",
		Headers: []string{"Admission No", "Full Name", "Gender", "Date of Birth", "Class", "Academic Year", "Guardian Phone", "Status"},
	}
	for _, st := range students {
		table.Rows = append(table.Rows, []string{
			st.AdmissionNo, st.FullName, st.Gender, export.Date(st.DateOfBirth), st.ClassName, st.AcademicYear, st.GuardianPhone, activeLabel(st.Active),
		})
	}
	return table, nil
}

func (s *ExportService) teacherTable(ctx context.Context, filter models.TeacherFilter) (export.Table, error) {
	teachers, err := s.src.Teachers.List(ctx, filter)
	if err != nil {
		return export.Table{}, internalErr(err, "failed to load teachers")
	}
	table := export.Table{
		Title:   "Teachers",
		Headers: []string{"Full Name", "Email", "Phone", "Qualification", "Department", "Class", "Status"},
	}
	for _, t := range teachers {
		table.Rows = append(table.Rows, []string{
			t.FullName, t.Email, t.Phone, t.Qualification, t.Department, export.Opt(t.ClassName), activeLabel(t.Active),
		})
	}
	return table, nil
}

func (s *ExportService) subjectTable(ctx context.Context, filter models.SubjectFilter) (export.Table, error) {
	subjects, err := s.src.Subjects.List(ctx, filter)
	if err != nil {
		return export.Table{}, internalErr(err, "failed to load subjects")
	}
	table := export.Table{
		Title:   "Subjects",
		Headers: []string{"Code", "Name", "Department", "Class", "Teacher"},
	}
	for _, sb := range subjects {
		table.Rows = append(table.Rows, []string{
			sb.Code, sb.Name, sb.Department, export.Opt(sb.ClassName), export.Opt(sb.TeacherName),
		})
	}
	return table, nil
}

func (s *ExportService) expenseTable(ctx context.Context, filter models.ExpenseFilter) (export.Table, error) {
	expenses, err := s.src.Expenses.List(ctx, filter)
	if err != nil {
		return export.Table{}, internalErr(err, "failed to load expenses")
	}
	table := export.Table{
		Title:   "Expenses",
		Headers: []string{"Voucher No", "Date", "Category", "Reason", "Amount", "Recorded By", "Approved By"},
	}
	var total float64
	for _, e := range expenses {
		total += e.Amount
		table.Rows = append(table.Rows, []string{
			e.VoucherNo, export.Date(e.ExpenseDate), e.Category, e.Reason, export.Money(e.Amount), e.CreatorName, export.Opt(e.ApproverName),
		})
	}
	table.Rows = append(table.Rows, []string{"TOTAL", "", "", "", export.Money(total), "", ""})
	return table, nil
}

func (s *ExportService) feeTable(ctx context.Context, filter models.FeePaymentFilter) (export.Table, error) {
	payments, err := s.src.Fees.List(ctx, filter)
	if err != nil {
		return export.Table{}, internalErr(err, "failed to load fee payments")
	}
	table := export.Table{
		Title:   "Fee Payments",
		Headers: []string{"Receipt No", "Date", "Admission No", "Student", "Class", "Fee Type", "Method", "Amount", "Collected By"},
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
		table.Rows = append(table.Rows, []string{
			p.ReceiptNo, export.Date(p.PaymentDate), p.AdmissionNo, p.StudentName, p.ClassName, p.FeeType, p.PaymentMethod, export.Money(p.Amount), p.CollectorName,
		})
	}
	table.Rows = append(table.Rows, []string{"TOTAL", "", "", "", "", "", "", export.Money(total), ""})
	return table, nil
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

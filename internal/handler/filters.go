package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
)

func studentFilter(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		Search:          strings.TrimSpace(c.Query("search")),
		ClassID:         idParam(c, "class_id"),
		AcademicYear:    strings.TrimSpace(c.Query("academic_year")),
		IncludeInactive: c.Query("active") == "all",
	}
}

func teacherFilter(c *gin.Context) models.TeacherFilter {
	return models.TeacherFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Department: strings.TrimSpace(c.Query("department")),
	}
}

func subjectFilter(c *gin.Context) models.SubjectFilter {
	return models.SubjectFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		Department: strings.TrimSpace(c.Query("department")),
		ClassID:    idParam(c, "class_id"),
	}
}

func expenseFilter(c *gin.Context) models.ExpenseFilter {
	return models.ExpenseFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		DateFrom: dateParam(c, "date_from"),
		DateTo:   dateParam(c, "date_to"),
	}
}

func feeFilter(c *gin.Context) models.FeePaymentFilter {
	return models.FeePaymentFilter{
		StudentID: idParam(c, "student_id"),
		FeeType:   strings.ToLower(strings.TrimSpace(c.Query("fee_type"))),
		DateFrom:  dateParam(c, "date_from"),
		DateTo:    dateParam(c, "date_to"),
	}
}

// exportFilters reads the filters of every list; the export service picks the one it needs.
func exportFilters(c *gin.Context) service.ExportFilters {
	return service.ExportFilters{
		Students: studentFilter(c),
		Teachers: teacherFilter(c),
		Subjects: subjectFilter(c),
		Expenses: expenseFilter(c),
		Fees:     feeFilter(c),
	}
}

// idParam drops a reference filter that is not a uuid, the same way a bad date is ignored.
func idParam(c *gin.Context, key string) string {
	raw := strings.ToLower(strings.TrimSpace(c.Query(key)))
	if raw == "" || uuid.Validate(raw) != nil {
		return ""
	}
	return raw
}

func limitParam(c *gin.Context, fallback uint64) uint64 {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

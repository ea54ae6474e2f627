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
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error)
	Options(ctx context.Context, filter models.StudentFilter) ([]models.StudentOption, error)
	Classes(ctx context.Context) ([]models.Class, error)
	Get(ctx context.Context, id string) (*models.StudentDetail, error)
	Admit(ctx context.Context, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req service.StudentRequest) (*models.Student, error)
	Deactivate(ctx context.Context, id string) error
}

type photoService interface {
	Upload(ctx context.Context, studentID, payload string) (string, error)
	URL(studentID string, photo *string) (string, error)
	Open(token string) (*service.Photo, error)
}

type feeSummaryService interface {
	StudentSummary(ctx context.Context, studentID string) (*service.FeeSummary, error)
}

// StudentOptionsResponse feeds the student dropdowns.
type StudentOptionsResponse struct {
	Students []models.StudentOption `json:"students"`
}

// PhotoUploadRequest carries a base64 data URL.
type PhotoUploadRequest struct {
	Image string `json:"image"`
}

// PhotoUploadResponse returns the signed URL of the stored photo.
type PhotoUploadResponse struct {
	Success  bool   `json:"success"`
	PhotoURL string `json:"photo_url"`
}

// StudentHandler serves the student pages, photo uploads and the student dropdown API.
type StudentHandler struct {
	students studentService
	photos   photoService
	fees     feeSummaryService
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(students studentService, photos photoService, fees feeSummaryService) *StudentHandler {
	return &StudentHandler{students: students, photos: photos, fees: fees}
}

// List renders the filtered student list.
func (h *StudentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter := studentFilter(c)
	students, err := h.students.List(ctx, filter)
	if err != nil {
		renderError(c, err)
		return
	}
	classes, err := h.students.Classes(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "students_list", gin.H{
		"Students": students,
		"Classes":  classes,
		"Filter":   filter,
		"Query":    exportQuery(c),
	})
}

// Show renders the student card with photo and fee summary.
func (h *StudentHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	student, err := h.students.Get(ctx, c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	photoURL, err := h.photos.URL(student.ID, student.Photo)
	if err != nil {
		renderError(c, err)
		return
	}
	fees, err := h.fees.StudentSummary(ctx, student.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "students_show", gin.H{
		"Student":  student,
		"PhotoURL": photoURL,
		"Fees":     fees,
	})
}

// NewForm renders the admission form.
func (h *StudentHandler) NewForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "", service.StudentRequest{}, "")
}

// Create handles the admission form.
func (h *StudentHandler) Create(c *gin.Context) {
	req, ok := h.bind(c, "")
	if !ok {
		return
	}
	if _, err := h.students.Admit(c.Request.Context(), req); err != nil {
		h.fail(c, "", req, err)
		return
	}
	redirectWithFlash(c, "/students", middleware.FlashSuccess, "student "+req.FullName+" admitted")
}

// EditForm renders the edit form for an existing student.
func (h *StudentHandler) EditForm(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	var req service.StudentRequest
	req.FromStudent(student.Student)
	h.renderForm(c, http.StatusOK, student.ID, req, "")
}

// Update handles the edit form.
func (h *StudentHandler) Update(c *gin.Context) {
	id := c.Param("id")
	req, ok := h.bind(c, id)
	if !ok {
		return
	}
	if _, err := h.students.Update(c.Request.Context(), id, req); err != nil {
		h.fail(c, id, req, err)
		return
	}
	redirectWithFlash(c, "/students/"+id, middleware.FlashSuccess, "student updated")
}

// Deactivate soft-deletes a student.
func (h *StudentHandler) Deactivate(c *gin.Context) {
	id := c.Param("id")
	if err := h.students.Deactivate(c.Request.Context(), id); err != nil {
		if appErrors.IsClientError(err) && !isNotFound(err) {
			redirectWithFlash(c, "/students/"+id, middleware.FlashError, appErrors.FromError(err).Message)
			return
		}
		renderError(c, err)
		return
	}
	redirectWithFlash(c, "/students", middleware.FlashSuccess, "student deactivated")
}

// Options godoc
// @Summary Student dropdown options
// @Tags Students
// @Produce json
// @Param class_id query string false "Class ID"
// @Param search query string false "Name or admission number"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} handler.StudentOptionsResponse
// @Failure 401 {object} response.ErrorBody
// @Router /api/students [get]
func (h *StudentHandler) Options(c *gin.Context) {
	filter := studentFilter(c)
	filter.Limit = limitParam(c, 0)
	options, err := h.students.Options(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if options == nil {
		options = []models.StudentOption{}
	}
	response.JSON(c, http.StatusOK, StudentOptionsResponse{Students: options})
}

// UploadPhoto godoc
// @Summary Upload a student photo
// @Description Accepts a base64 data URL of a JPEG or PNG image
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body handler.PhotoUploadRequest true "Image payload"
// @Success 200 {object} handler.PhotoUploadResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /api/students/{id}/photo [post]
func (h *StudentHandler) UploadPhoto(c *gin.Context) {
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo payload"))
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image is required"))
		return
	}
	url, err := h.photos.Upload(c.Request.Context(), c.Param("id"), req.Image)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, PhotoUploadResponse{Success: true, PhotoURL: url})
}

// Photo serves a stored photo, or the placeholder, behind a signed token.
func (h *StudentHandler) Photo(c *gin.Context) {
	photo, err := h.photos.Open(c.Param("token"))
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status >= http.StatusInternalServerError {
			reportErr(c, err)
		}
		c.AbortWithStatus(appErr.Status)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, photo.ContentType, photo.Data)
}

func (h *StudentHandler) bind(c *gin.Context, id string) (service.StudentRequest, bool) {
	var req service.StudentRequest
	if !submitted(c, "save_student") {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidSubmission)
		return req, false
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidInput)
		return req, false
	}
	return req, true
}

func (h *StudentHandler) fail(c *gin.Context, id string, req service.StudentRequest, err error) {
	if isNotFound(err) {
		renderError(c, err)
		return
	}
	status, message := formFailure(c, err)
	h.renderForm(c, status, id, req, message)
}

func (h *StudentHandler) renderForm(c *gin.Context, status int, id string, req service.StudentRequest, message string) {
	classes, err := h.students.Classes(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	data := gin.H{"ID": id, "Form": req, "Classes": classes, "Today": today()}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "students_form", data)
}

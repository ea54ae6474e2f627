package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
)

type subjectService interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, error)
	Get(ctx context.Context, id string) (*models.SubjectDetail, error)
	Create(ctx context.Context, req service.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, id string, req service.SubjectRequest) (*models.Subject, error)
}

type teacherLister interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error)
}

// SubjectHandler serves the subject list and forms.
type SubjectHandler struct {
	subjects subjectService
	classes  classLister
	teachers teacherLister
}

// NewSubjectHandler constructs a SubjectHandler.
func NewSubjectHandler(subjects subjectService, classes classLister, teachers teacherLister) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, classes: classes, teachers: teachers}
}

// List renders the filtered subject list.
func (h *SubjectHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter := subjectFilter(c)
	subjects, err := h.subjects.List(ctx, filter)
	if err != nil {
		renderError(c, err)
		return
	}
	classes, err := h.classes.Classes(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "subjects_list", gin.H{
		"Subjects": subjects,
		"Classes":  classes,
		"Filter":   filter,
		"Query":    exportQuery(c),
	})
}

// NewForm renders an empty subject form.
func (h *SubjectHandler) NewForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "", service.SubjectRequest{}, "")
}

// Create handles the new subject form.
func (h *SubjectHandler) Create(c *gin.Context) {
	req, ok := h.bind(c, "")
	if !ok {
		return
	}
	if _, err := h.subjects.Create(c.Request.Context(), req); err != nil {
		h.fail(c, "", req, err)
		return
	}
	redirectWithFlash(c, "/subjects", middleware.FlashSuccess, "subject "+req.Name+" added")
}

// EditForm renders the form for an existing subject.
func (h *SubjectHandler) EditForm(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	var req service.SubjectRequest
	req.FromSubject(subject.Subject)
	h.renderForm(c, http.StatusOK, subject.ID, req, "")
}

// Update handles the edit form.
func (h *SubjectHandler) Update(c *gin.Context) {
	id := c.Param("id")
	req, ok := h.bind(c, id)
	if !ok {
		return
	}
	if _, err := h.subjects.Update(c.Request.Context(), id, req); err != nil {
		h.fail(c, id, req, err)
		return
	}
	redirectWithFlash(c, "/subjects", middleware.FlashSuccess, "subject updated")
}

func (h *SubjectHandler) bind(c *gin.Context, id string) (service.SubjectRequest, bool) {
	var req service.SubjectRequest
	if !submitted(c, "save_subject") {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidSubmission)
		return req, false
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidInput)
		return req, false
	}
	return req, true
}

func (h *SubjectHandler) fail(c *gin.Context, id string, req service.SubjectRequest, err error) {
	if isNotFound(err) {
		renderError(c, err)
		return
	}
	status, message := formFailure(c, err)
	h.renderForm(c, status, id, req, message)
}

func (h *SubjectHandler) renderForm(c *gin.Context, status int, id string, req service.SubjectRequest, message string) {
	ctx := c.Request.Context()
	classes, err := h.classes.Classes(ctx)
	if err != nil {
		renderError(c, err)
		return
	}
	teachers, err := h.teachers.List(ctx, models.TeacherFilter{})
	if err != nil {
		renderError(c, err)
		return
	}
	data := gin.H{"ID": id, "Form": req, "Classes": classes, "Teachers": teachers}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "subjects_form", data)
}

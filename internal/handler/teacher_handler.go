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

type teacherService interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, error)
	Get(ctx context.Context, id string) (*models.TeacherDetail, error)
	Create(ctx context.Context, req service.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, id string, req service.TeacherRequest) (*models.Teacher, error)
}

type classLister interface {
	Classes(ctx context.Context) ([]models.Class, error)
}

// TeacherHandler serves the teacher list and forms.
type TeacherHandler struct {
	teachers teacherService
	classes  classLister
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(teachers teacherService, classes classLister) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, classes: classes}
}

// List renders the filtered teacher list.
func (h *TeacherHandler) List(c *gin.Context) {
	filter := teacherFilter(c)
	teachers, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		renderError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "teachers_list", gin.H{
		"Teachers": teachers,
		"Filter":   filter,
		"Query":    exportQuery(c),
	})
}

// NewForm renders an empty teacher form.
func (h *TeacherHandler) NewForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "", service.TeacherRequest{Active: true}, "")
}

// Create handles the new teacher form.
func (h *TeacherHandler) Create(c *gin.Context) {
	req, ok := h.bind(c, "")
	if !ok {
		return
	}
	if _, err := h.teachers.Create(c.Request.Context(), req); err != nil {
		h.fail(c, "", req, err)
		return
	}
	redirectWithFlash(c, "/teachers", middleware.FlashSuccess, "teacher "+req.FullName+" added")
}

// EditForm renders the form for an existing teacher.
func (h *TeacherHandler) EditForm(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	var req service.TeacherRequest
	req.FromTeacher(teacher.Teacher)
	h.renderForm(c, http.StatusOK, teacher.ID, req, "")
}

// Update handles the edit form.
func (h *TeacherHandler) Update(c *gin.Context) {
	id := c.Param("id")
	req, ok := h.bind(c, id)
	if !ok {
		return
	}
	if _, err := h.teachers.Update(c.Request.Context(), id, req); err != nil {
		h.fail(c, id, req, err)
		return
	}
	redirectWithFlash(c, "/teachers", middleware.FlashSuccess, "teacher updated")
}

func (h *TeacherHandler) bind(c *gin.Context, id string) (service.TeacherRequest, bool) {
	var req service.TeacherRequest
	if !submitted(c, "save_teacher") {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidSubmission)
		return req, false
	}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		h.renderForm(c, http.StatusOK, id, req, msgInvalidInput)
		return req, false
	}
	return req, true
}

func (h *TeacherHandler) fail(c *gin.Context, id string, req service.TeacherRequest, err error) {
	if isNotFound(err) {
		renderError(c, err)
		return
	}
	status, message := formFailure(c, err)
	h.renderForm(c, status, id, req, message)
}

func (h *TeacherHandler) renderForm(c *gin.Context, status int, id string, req service.TeacherRequest, message string) {
	classes, err := h.classes.Classes(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	data := gin.H{"ID": id, "Form": req, "Classes": classes}
	if message != "" {
		data["Error"] = message
	}
	renderPage(c, status, "teachers_form", data)
}

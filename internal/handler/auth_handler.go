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

type authService interface {
	Login(ctx context.Context, req service.LoginRequest) (*models.SessionUser, error)
}

// AuthHandler serves the login form and manages the session cookie.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// LoginPage renders the sign-in form. Signed-in users go straight to the dashboard.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	renderPage(c, http.StatusOK, "login", nil)
}

// Login verifies the credentials and starts a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		renderPage(c, http.StatusOK, "login", gin.H{"Error": msgInvalidSubmission})
		return
	}
	user, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		status, message := formFailure(c, err)
		renderPage(c, status, "login", gin.H{"Error": message, "Username": req.Username})
		return
	}
	if err := middleware.SignIn(c, user); err != nil {
		renderError(c, err)
		return
	}
	redirectWithFlash(c, "/", middleware.FlashSuccess, "welcome back, "+user.FullName)
}

// Logout clears the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.SignOut(c); err != nil {
		renderError(c, err)
		return
	}
	redirectWithFlash(c, "/login", middleware.FlashSuccess, "you have been signed out")
}

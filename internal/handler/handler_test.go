package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-web/internal/middleware"
	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/web"
	"github.com/noah-isme/sma-adp-web/pkg/config"
)

var (
	adminUser   = &models.SessionUser{ID: "user-admin", Username: "admin", FullName: "Head Admin", Role: models.RoleAdmin}
	teacherUser = &models.SessionUser{ID: "user-teacher", Username: "guru", FullName: "Budi Santoso", Role: models.RoleTeacher}
	cashierUser = &models.SessionUser{ID: "user-cashier", Username: "bursar", FullName: "Siti Aminah", Role: models.RoleCashier}
)

// newTestEngine returns an engine with real templates and sessions where user is already signed in.
func newTestEngine(t *testing.T, user *models.SessionUser, register func(r *gin.Engine)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(middleware.Sessions(config.SessionConfig{Name: "sma_session", Secret: "handler-test-secret-0123456789abcdef", MaxAge: time.Hour}))
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUserKey, user)
		}
		c.Next()
	})
	r.Use(SchoolName("SMA Negeri 1"))
	register(r)
	return r
}

func doGet(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func doPostForm(r http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doPostJSON(r http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// hasSessionCookie reports whether the response persisted the session, e.g. to store a flash.
func hasSessionCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sma_session" {
			return true
		}
	}
	return false
}

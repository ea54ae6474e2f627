package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
	"github.com/noah-isme/sma-adp-web/pkg/config"
	"github.com/noah-isme/sma-adp-web/pkg/logger"
	"github.com/noah-isme/sma-adp-web/pkg/response"
)

// ContextUserKey is the gin context key storing the signed-in *models.SessionUser.
const ContextUserKey = "currentUser"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
	sessionFullName = "full_name"
	sessionRole     = "role"

	flashPrefix = "flash_"
)

// Sessions installs the signed cookie store.
func Sessions(cfg config.SessionConfig) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(cfg.Name, store)
}

// LoadUser copies the session identity onto the gin context. It never blocks.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := userFromSession(sessions.Default(c)); user != nil {
			c.Set(ContextUserKey, user)
			c.Set(logger.UserIDKey, user.ID)
		}
		c.Next()
	}
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(c *gin.Context) *models.SessionUser {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.SessionUser)
	return user
}

// SignIn replaces the session contents with user.
func SignIn(c *gin.Context, user *models.SessionUser) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, user.ID)
	session.Set(sessionUsername, user.Username)
	session.Set(sessionFullName, user.FullName)
	session.Set(sessionRole, string(user.Role))
	c.Set(ContextUserKey, user)
	return session.Save()
}

// SignOut clears the session.
func SignOut(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

// RequireRole guards pages. Anonymous visitors go to /login, users without one of roles go to /.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			_ = AddFlash(c, FlashError, "please sign in")
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if len(roles) > 0 && !user.HasRole(roles...) {
			_ = AddFlash(c, FlashError, "you do not have permission to view that page")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPIRole guards JSON endpoints with 401/403 responses.
func RequireAPIRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if len(roles) > 0 && !user.HasRole(roles...) {
			response.Abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// AddFlash queues a one-request message of kind and persists the session.
func AddFlash(c *gin.Context, kind, message string) error {
	session := sessions.Default(c)
	session.AddFlash(message, flashPrefix+kind)
	return session.Save()
}

// Flashes pops the pending messages, keyed by kind.
func Flashes(c *gin.Context) map[string][]string {
	session := sessions.Default(c)
	out := make(map[string][]string)
	popped := false
	for _, kind := range []string{FlashSuccess, FlashError} {
		for _, v := range session.Flashes(flashPrefix + kind) {
			popped = true
			if s, ok := v.(string); ok {
				out[kind] = append(out[kind], s)
			}
		}
	}
	if popped {
		_ = session.Save()
	}
	return out
}

func userFromSession(session sessions.Session) *models.SessionUser {
	id, _ := session.Get(sessionUserID).(string)
	if id == "" {
		return nil
	}
	role, _ := session.Get(sessionRole).(string)
	username, _ := session.Get(sessionUsername).(string)
	fullName, _ := session.Get(sessionFullName).(string)
	return &models.SessionUser{ID: id, Username: username, FullName: fullName, Role: models.UserRole(role)}
}

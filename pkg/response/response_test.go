package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestErrorDoesNotLeakInternalText(t *testing.T) {
	c, rec := newContext()

	Error(c, fmt.Errorf("pq: password authentication failed for user \"postgres\""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrInternal.Message, body.Error)
	assert.NotContains(t, rec.Body.String(), "postgres")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestErrorKeepsClientMessage(t *testing.T) {
	c, rec := newContext()

	Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin role required"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"admin role required","code":"FORBIDDEN"}`, rec.Body.String())
}

func TestOK(t *testing.T) {
	c, rec := newContext()

	OK(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

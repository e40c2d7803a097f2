package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSendValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendValidationError(c, "Invalid season", "season must be one of the configured seasons")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "season must be one of the configured seasons", resp.Error.Details)
}

func TestSendSuccessWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendSuccessWithMeta(c, []string{"BUF"}, &Meta{Season: 2021, Total: 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":["BUF"],"meta":{"season":2021,"total":1}}`, w.Body.String())
}

func TestAppError(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: no artifact", NewAppError(ErrCodeNotFound, "no artifact").Error())
	assert.Equal(t, "UPSTREAM_ERROR: fetch failed (404)", NewAppError(ErrCodeUpstream, "fetch failed", "404").Error())
}

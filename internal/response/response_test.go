package response

import (
	"booknet/internal/domain"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatuses(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{&domain.ValidationError{Fields: []domain.FieldViolation{{Field: "email", Message: "bad"}}}, http.StatusBadRequest, MsgValidation},
		{&domain.DuplicateKeyError{Field: "username"}, http.StatusConflict, "username is already taken."},
		{fmt.Errorf("wrapped: %w", &domain.DuplicateKeyError{Field: "email"}), http.StatusConflict, "email is already taken."},
		{&domain.UploadRejectedError{Message: "Too many files uploaded.", Code: "LIMIT_FILE_COUNT"}, http.StatusBadRequest, "Too many files uploaded."},
		{domain.ErrNotRegistered, http.StatusUnauthorized, MsgNotRegistered},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, MsgInvalidCredentials},
		{domain.ErrInvalidOrExpiredReset, http.StatusBadRequest, MsgInvalidReset},
		{fmt.Errorf("%w: expired", domain.ErrInvalidOrExpiredToken), http.StatusUnauthorized, MsgAuthentication},
		{domain.ErrForbidden, http.StatusForbidden, MsgForbidden},
		{domain.ErrNotFound, http.StatusNotFound, MsgNotFound},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tc := range cases {
		status, body := Map(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.message, body.Message, tc.err.Error())
		assert.False(t, body.Success)
	}
}

func TestErrorWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	Error(c, &domain.UploadRejectedError{Message: "File too large. Maximum size is 10MB.", Code: "LIMIT_FILE_SIZE"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "LIMIT_FILE_SIZE", body["code"])
	assert.NotContains(t, body, "errors")
	assert.NotContains(t, body, "stack")
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/backend"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/validate"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "field errors",
			err:      fmt.Errorf("failed validating with error=%w", validate.NewError(map[string]string{"pincode": "bad"})),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "backend status is kept",
			err:      fmt.Errorf("failed finding booking with error=%w", &backend.Error{Status: http.StatusNotFound, Message: "nope"}),
			expected: http.StatusNotFound,
		},
		{name: "backend unreachable", err: &backend.UnavailableError{Cause: errors.New("dial")}, expected: http.StatusBadGateway},
		{name: "not found", err: inErrors.ErrNotFound, expected: http.StatusNotFound},
		{name: "expired token", err: fmt.Errorf("x: %w", inErrors.ErrTokenExpired), expected: http.StatusUnauthorized},
		{name: "forbidden", err: inErrors.ErrForbidden, expected: http.StatusForbidden},
		{name: "empty cart", err: inErrors.ErrEmptyCart, expected: http.StatusConflict},
		{name: "invalid transition", err: inErrors.ErrInvalidTransition, expected: http.StatusConflict},
		{name: "rate limited", err: inErrors.ErrTooManyRequests, expected: http.StatusTooManyRequests},
		{name: "unknown falls back", err: errors.New("boom"), expected: http.StatusBadGateway},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, StatusFromError(test.err, http.StatusBadGateway))
		})
	}
}

func TestMessageFromError(t *testing.T) {
	wrapped := fmt.Errorf("failed paying with error=%w", fmt.Errorf("failed x with error=%w", inErrors.ErrEmptyCart))
	assert.Equal(t, inErrors.ErrEmptyCart.Error(), MessageFromError(wrapped))

	backendErr := fmt.Errorf("failed login with error=%w", &backend.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"})
	assert.Equal(t, "invalid credentials", MessageFromError(backendErr))

	assert.Equal(t, inErrors.ErrValidation.Error(), MessageFromError(validate.NewError(map[string]string{"a": "b"})))
}

func TestWriteFailureWith(t *testing.T) {
	w := httptest.NewRecorder()
	err := validate.NewError(map[string]string{"pincode": "pincode must be 6 digits"})

	WriteFailureWith(context.Background(), w, http.StatusInternalServerError, err, map[string]interface{}{"step": "address"})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, VALUE_HEADER_APPLICATION_JSON, w.Header().Get(KEY_HEADER_CONTENT_TYPE))
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, STATUS_FAILED, body["status"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), body["statusCode"])
	assert.Equal(t, map[string]interface{}{"pincode": "pincode must be 6 digits"}, body["errors"])
	assert.Equal(t, map[string]interface{}{"step": "address"}, body["data"])
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(context.Background(), w, http.StatusCreated, "created", nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, STATUS_SUCCESS, body["status"])
	assert.NotContains(t, body, "data")
}

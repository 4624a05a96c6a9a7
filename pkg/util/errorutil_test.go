package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", ErrEmailAlreadyExists())

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeEmailAlreadyExists, got.Code)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
}

func TestToDomainError_MapsFiberErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		status   int
	}{
		{"bad request", fiber.NewError(http.StatusBadRequest, "invalid payload"), CodeValidationFailed, http.StatusBadRequest},
		{"not found", fiber.ErrNotFound, CodeNotFound, http.StatusNotFound},
		{"method not allowed", fiber.ErrMethodNotAllowed, "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed},
		{"unavailable", fiber.ErrServiceUnavailable, CodeInternal, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}
}

func TestToDomainError_UnknownErrorsBecomeInternal(t *testing.T) {
	cause := errors.New("connection reset")

	got := ToDomainError(cause)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(ErrPhoneNotValid(), CodePhoneNotValid))
	assert.False(t, IsCode(ErrPhoneNotValid(), CodePasswordNotValid))
	assert.False(t, IsCode(errors.New("plain"), CodePhoneNotValid))
}

func TestAccountErrorStatuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrUserNotFound(), http.StatusNotFound},
		{ErrEmailAlreadyExists(), http.StatusConflict},
		{ErrPhoneAlreadyExists(), http.StatusConflict},
		{ErrPhoneNotValid(), http.StatusBadRequest},
		{ErrPasswordNotValid(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToDomainError(tt.err).HTTPStatus, tt.err.Error())
	}
}

package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "user not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "user not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeInternal,
				Message: "session store error",
				Err:     errors.New("connection refused"),
			},
			wantMsg: "internal: session store error (connection refused)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeUnauthorized,
				Message: "user not provisioned",
			},
			wantMsg: "unauthorized: user not provisioned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewDomainError(ErrorTypeNotFound, "missing", nil),
			target: ErrUserNotFound,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeValidation, "bad", nil),
			target: ErrUserNotFound,
			want:   false,
		},
		{
			name:   "wrapped with fmt",
			err:    fmt.Errorf("lookup: %w", ErrSessionExpired),
			target: ErrUserNotProvisioned,
			want:   true,
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			target: ErrSessionStore,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "invalid username", nil).
		WithDetail("username", "../root")

	require.NotNil(t, err.Details)
	assert.Equal(t, "../root", err.Details["username"])

	bare := &DomainError{Type: ErrorTypeValidation}
	bare.WithDetail("k", "v")
	assert.Equal(t, "v", bare.Details["k"])
}

func TestErrorTypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: ErrUserNotFound, check: IsNotFoundError},
		{name: "validation", err: ErrInvalidUsername, check: IsValidationError},
		{name: "unauthorized", err: ErrUserNotProvisioned, check: IsUnauthorizedError},
		{name: "forbidden", err: NewDomainError(ErrorTypeForbidden, "blocked", nil), check: IsForbiddenError},
		{name: "internal", err: WrapError(ErrDatabaseError, errors.New("x")), check: IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(ErrSessionStore, cause)

	assert.NotSame(t, ErrSessionStore, err)
	assert.ErrorIs(t, err, ErrSessionStore)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal: session store error (connection refused)", err.Error())
	assert.Nil(t, ErrSessionStore.Err)
}

func TestGetErrorTypeAndDetails(t *testing.T) {
	err := WrapError(ErrInvalidUsername, errors.New("too long"))
	err.WithDetail("max", 255)

	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, 255, GetErrorDetails(err)["max"])

	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}

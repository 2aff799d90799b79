package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

func TestMapError(t *testing.T) {
	tests := map[string]struct {
		err  error
		code string
		msg  string
	}{
		"nil":                {nil, "", ""},
		"storage outage":     {fmt.Errorf("save prefs: %w", storage.ErrUnavailable), "STO001", "Saved preferences are unavailable"},
		"empty storage key":  {storage.ErrInvalidKey, "STO002", "Invalid storage key"},
		"history outage":     {fmt.Errorf("%w: query: %w", ErrHistoryUnavailable, errors.New("connection refused")), "STO003", "Transaction history is unavailable"},
		"users outage":       {fmt.Errorf("%w: get user: %w", ErrUsersUnavailable, errors.New("disk I/O error")), "STO004", "Accounts are unavailable"},
		"bad password":       {ErrInvalidCredentials, "AUTH001", "Invalid email or password"},
		"email taken":        {fmt.Errorf("signup: %w", ErrEmailTaken), "AUTH002", "Email already registered"},
		"bank id taken":      {ErrBankIDTaken, "AUTH003", "Bank ID already registered"},
		"signed out":         {ErrNotSignedIn, "AUTH004", "Please log in first"},
		"unknown id":         {ErrTransactionNotFound, "VAL003", "Transaction not found"},
		"field errors":       {fmt.Errorf("predict form: %w", validate.Errors{{Field: "amount", Message: "required"}}), "VAL001", "One or more fields are invalid"},
		"deadline":           {fmt.Errorf("POST /detect: %w", context.DeadlineExceeded), "API002", "The fraud scoring request timed out"},
		"cancelled":          {context.Canceled, "API005", "Request was cancelled"},
		"refused":            {errors.New("dial tcp 127.0.0.1:8000: connection refused"), "API001", "The fraud scoring service is unavailable"},
		"scoring 503":        {fmt.Errorf("%w: %w", ErrScoring, errors.New("POST http://api/detect: HTTP 503")), "API001", "The fraud scoring service is unavailable"},
		"bad gateway":        {errors.New("POST http://api/detect: HTTP 502: bad gateway"), "API001", "The fraud scoring service is unavailable"},
		"unprocessable":      {errors.New("POST http://api/detect: HTTP 422: amount"), "API003", "The fraud scoring service rejected the transaction"},
		"undecodable":        {errors.New("decode response: unexpected EOF"), "API004", "The fraud scoring service returned an unreadable response"},
		"rate limited":       {errors.New("rate limit exceeded"), "RATE001", "Too many requests"},
		"unknown":            {errors.New("some random internal error"), "ERR000", "An unexpected error occurred"},
		"mixed case pattern": {errors.New("Client.Timeout exceeded while awaiting headers"), "API002", "The fraud scoring request timed out"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.msg, got.Message)
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t,
		"Transaction history is unavailable (Code: STO003). Please try again in a few moments",
		FormatUserError(fmt.Errorf("list: %w", ErrHistoryUnavailable)))
	assert.Empty(t, FormatUserError(nil))
}

func TestIsUserFacing(t *testing.T) {
	assert.False(t, IsUserFacing(nil))
	assert.True(t, IsUserFacing(errors.New("lookup api: no such host")))
	assert.False(t, IsUserFacing(errors.New("random internal error xyz")))
}

func TestNewUserError(t *testing.T) {
	assert.Nil(t, NewUserError(nil))

	techErr := fmt.Errorf("get: %w", ErrTransactionNotFound)
	userErr := NewUserError(techErr)
	require.NotNil(t, userErr)
	assert.Equal(t, "Transaction not found", userErr.Error())
	assert.ErrorIs(t, userErr, ErrTransactionNotFound)
}

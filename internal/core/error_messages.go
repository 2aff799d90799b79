// Package core holds the FraudGuard service layer: transaction history,
// dashboard statistics, scoring API calls and user-facing error messages.
//
// # Error Codes Reference
//
// Errors shown to users carry a code they can quote to support staff.
//
// # Scoring API Errors (API001-API099)
//
//	API001 - Scoring service unavailable
//	         Action: Please try again in a few moments
//	         Patterns: "connection refused", "no such host", "http 502", "http 503"
//
//	API002 - Scoring request timed out
//	         Action: Please try again
//	         Patterns: context.DeadlineExceeded, "timeout"
//
//	API003 - Scoring service rejected the transaction
//	         Action: Check the transaction fields and try again
//	         Patterns: "http 400", "http 422"
//
//	API004 - Scoring service returned an unreadable response
//	         Action: Please try again or contact support
//	         Patterns: "decode response"
//
//	API005 - Request cancelled
//	         Action: Please try again
//	         Patterns: context.Canceled
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Saved preferences are unavailable
//	         Action: Your changes were not saved. Please try again later
//	         Patterns: storage.ErrUnavailable
//
//	STO002 - Invalid storage key
//	         Action: Use a non-empty key
//	         Patterns: storage.ErrInvalidKey
//
//	STO003 - Transaction history is unavailable
//	         Action: Please try again in a few moments
//	         Patterns: ErrHistoryUnavailable
//
//	STO004 - Accounts are unavailable
//	         Action: Please try again in a few moments
//	         Patterns: ErrUsersUnavailable
//
// # Account Errors (AUTH001-AUTH099)
//
//	AUTH001 - Invalid email or password
//	          Action: Check your email and password
//	          Patterns: ErrInvalidCredentials
//
//	AUTH002 - Email already registered
//	          Action: Log in instead
//	          Patterns: ErrEmailTaken
//
//	AUTH003 - Bank ID already registered
//	          Action: Use your bank's own ID
//	          Patterns: ErrBankIDTaken
//
//	AUTH004 - Please log in first
//	          Action: Log in to continue
//	          Patterns: ErrNotSignedIn
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - One or more fields are invalid
//	         Action: Correct the highlighted fields and resubmit
//	         Patterns: validate.Errors
//
//	VAL002 - Invalid request body
//	         Action: Send a JSON object
//	         Patterns: "invalid request body"
//
//	VAL003 - Transaction not found
//	         Action: Check the transaction ID
//	         Patterns: ErrTransactionNotFound
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are matched first with errors.Is / errors.As. Text
// patterns are then matched case-insensitively with strings.Contains; the
// first match wins, so specific patterns come before general ones.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/fraudguard/internal/storage"
	"github.com/JonMunkholm/fraudguard/internal/validate"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgAPIUnavailable = UserMessage{
		Message: "The fraud scoring service is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "API001",
	}
	msgAPITimeout = UserMessage{
		Message: "The fraud scoring request timed out",
		Action:  "Please try again",
		Code:    "API002",
	}
	msgAPIRejected = UserMessage{
		Message: "The fraud scoring service rejected the transaction",
		Action:  "Check the transaction fields and try again",
		Code:    "API003",
	}
	msgAPIBadResponse = UserMessage{
		Message: "The fraud scoring service returned an unreadable response",
		Action:  "Please try again or contact support",
		Code:    "API004",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "API005",
	}
	msgStorageUnavailable = UserMessage{
		Message: "Saved preferences are unavailable",
		Action:  "Your changes were not saved. Please try again later",
		Code:    "STO001",
	}
	msgInvalidKey = UserMessage{
		Message: "Invalid storage key",
		Action:  "Use a non-empty key",
		Code:    "STO002",
	}
	msgHistoryUnavailable = UserMessage{
		Message: "Transaction history is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "STO003",
	}
	msgUsersUnavailable = UserMessage{
		Message: "Accounts are unavailable",
		Action:  "Please try again in a few moments",
		Code:    "STO004",
	}
	msgInvalidCredentials = UserMessage{
		Message: "Invalid email or password",
		Action:  "Check your email and password",
		Code:    "AUTH001",
	}
	msgEmailTaken = UserMessage{
		Message: "Email already registered",
		Action:  "Log in instead",
		Code:    "AUTH002",
	}
	msgBankIDTaken = UserMessage{
		Message: "Bank ID already registered",
		Action:  "Use your bank's own ID",
		Code:    "AUTH003",
	}
	msgNotSignedIn = UserMessage{
		Message: "Please log in first",
		Action:  "Log in to continue",
		Code:    "AUTH004",
	}
	msgInvalidFields = UserMessage{
		Message: "One or more fields are invalid",
		Action:  "Correct the highlighted fields and resubmit",
		Code:    "VAL001",
	}
	msgInvalidBody = UserMessage{
		Message: "Invalid request body",
		Action:  "Send a JSON object",
		Code:    "VAL002",
	}
	msgNotFound = UserMessage{
		Message: "Transaction not found",
		Action:  "Check the transaction ID",
		Code:    "VAL003",
	}
)

// sentinelMatchers are checked before text patterns.
var sentinelMatchers = []struct {
	match func(error) bool
	msg   UserMessage
}{
	{func(err error) bool { return errors.Is(err, storage.ErrUnavailable) }, msgStorageUnavailable},
	{func(err error) bool { return errors.Is(err, storage.ErrInvalidKey) }, msgInvalidKey},
	{func(err error) bool { return errors.Is(err, ErrHistoryUnavailable) }, msgHistoryUnavailable},
	{func(err error) bool { return errors.Is(err, ErrUsersUnavailable) }, msgUsersUnavailable},
	{func(err error) bool { return errors.Is(err, ErrTransactionNotFound) }, msgNotFound},
	{func(err error) bool { return errors.Is(err, ErrInvalidCredentials) }, msgInvalidCredentials},
	{func(err error) bool { return errors.Is(err, ErrEmailTaken) }, msgEmailTaken},
	{func(err error) bool { return errors.Is(err, ErrBankIDTaken) }, msgBankIDTaken},
	{func(err error) bool { return errors.Is(err, ErrNotSignedIn) }, msgNotSignedIn},
	{func(err error) bool {
		var verrs validate.Errors
		return errors.As(err, &verrs)
	}, msgInvalidFields},
	{func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }, msgAPITimeout},
	{func(err error) bool { return errors.Is(err, context.Canceled) }, msgCancelled},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages. Order matters: the first matching pattern wins.
var errorPatterns = []errorPattern{
	{pattern: "connection refused", msg: msgAPIUnavailable},
	{pattern: "no such host", msg: msgAPIUnavailable},
	{pattern: "http 502", msg: msgAPIUnavailable},
	{pattern: "http 503", msg: msgAPIUnavailable},
	{pattern: "http 504", msg: msgAPITimeout},
	{pattern: "timeout", msg: msgAPITimeout},
	{pattern: "http 400", msg: msgAPIRejected},
	{pattern: "http 422", msg: msgAPIRejected},
	{pattern: "decode response", msg: msgAPIBadResponse},
	{pattern: "invalid request body", msg: msgInvalidBody},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check the application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("save prefs: %w", storage.ErrUnavailable))
//	// msg.Code == "STO001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range sentinelMatchers {
		if m.match(err) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

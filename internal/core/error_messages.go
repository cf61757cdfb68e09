package core

// # Error Codes Reference
//
// Errors shown to users carry a code they can quote to support staff.
// Known sentinel errors are matched first with errors.Is; anything else falls
// back to case-insensitive substring patterns on the error text.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum preview size
//	          Action: Split the file or preview a smaller extract
//	FILE004 - No file: No file was provided
//	          Action: Choose a CSV file and try again
//	FILE005 - Empty file: File contains no data
//	          Action: Check that the file has a header row
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Unknown schema: No validation rules exist for this import type
//	         Action: Pick one of the listed schemas
//
// # Fetch Errors (FETCH001-FETCH099)
//
//	FETCH001 - Disabled: Remote fetch is turned off
//	FETCH002 - Bad URL: URL is malformed or not http(s)
//	FETCH003 - Host not allowed: Host is not on the allow list
//	FETCH004 - Bad status: Remote server did not return the file
//	FETCH005 - Unreachable: Remote server could not be reached
//
// # Preview Errors (PRV001-PRV099)
//
//	PRV001 - Busy: Too many previews are running
//	PRV002 - Cancelled: Request was cancelled
//	PRV003 - Timeout: Preview took too long
//
// # History Errors (HIST001-HIST099, NOTF001)
//
//	HIST001 - Disabled: Preview history needs a database
//	NOTF001 - Not found: Preview run does not exist
//
// # Other
//
//	DB004   - Connection refused: Unable to connect to database
//	RATE001 - Rate limit: Too many requests
//	ERR000  - Fallback for anything unmatched; check the logs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum preview size",
		Action:  "Split the file or preview a smaller extract",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was provided",
		Action:  "Choose a CSV file and try again",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "File contains no data",
		Action:  "Check that the file has a header row",
		Code:    "FILE005",
	}
	msgUnknownSchema = UserMessage{
		Message: "No validation rules exist for this import type",
		Action:  "Pick one of the listed schemas",
		Code:    "SCH001",
	}
	msgFetchDisabled = UserMessage{
		Message: "Remote fetch is turned off",
		Action:  "Upload the file directly instead",
		Code:    "FETCH001",
	}
	msgFetchURL = UserMessage{
		Message: "The URL is not valid",
		Action:  "Use a full http:// or https:// address",
		Code:    "FETCH002",
	}
	msgFetchHost = UserMessage{
		Message: "This host is not allowed",
		Action:  "Ask an administrator to add the host or upload the file directly",
		Code:    "FETCH003",
	}
	msgFetchStatus = UserMessage{
		Message: "The remote server did not return the file",
		Action:  "Check that the URL is correct and publicly reachable",
		Code:    "FETCH004",
	}
	msgFetchUnreachable = UserMessage{
		Message: "The remote server could not be reached",
		Action:  "Check the URL and try again later",
		Code:    "FETCH005",
	}
	msgTooManyPreviews = UserMessage{
		Message: "Too many previews are running",
		Action:  "Please wait a moment before trying again",
		Code:    "PRV001",
	}
	msgCancelled = UserMessage{
		Message: "The request was cancelled",
		Action:  "Start the preview again",
		Code:    "PRV002",
	}
	msgTimeout = UserMessage{
		Message: "The preview took too long",
		Action:  "Try a smaller file or try again later",
		Code:    "PRV003",
	}
	msgHistoryDisabled = UserMessage{
		Message: "Preview history is not enabled",
		Action:  "Configure DATABASE_URL to keep history",
		Code:    "HIST001",
	}
	msgNotFound = UserMessage{
		Message: "Preview run not found",
		Action:  "Check the run ID",
		Code:    "NOTF001",
	}
)

// sentinelMessages maps wrapped sentinel errors to user messages. The first
// match wins, so more specific errors come first.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{table.ErrEmptyFile, msgEmptyFile},
	{rules.ErrUnknownSchema, msgUnknownSchema},
	{ErrFetchDisabled, msgFetchDisabled},
	{ErrFetchURL, msgFetchURL},
	{ErrFetchHost, msgFetchHost},
	{ErrFetchStatus, msgFetchStatus},
	{ErrTooManyPreviews, msgTooManyPreviews},
	{ErrHistoryDisabled, msgHistoryDisabled},
	{store.ErrNotFound, msgNotFound},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that carry no sentinel. The first matching pattern wins.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "unknown schema", msg: msgUnknownSchema},
	{pattern: "fetch ", msg: msgFetchUnreachable},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{pattern: "timeout", msg: msgTimeout},
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
// should check the logs for the original error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("upload: %w", ErrFileTooLarge))
//	// msg.Code == "FILE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
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

// IsUserFacing reports whether err maps to a known message rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
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

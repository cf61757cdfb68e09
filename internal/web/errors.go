package web

// errors.go turns service errors into JSON responses.
//
// Every error is logged with the request ID and the technical detail, then
// mapped through core.MapError so the client only sees the user message,
// the suggested action and a support code.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/core"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/rules"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/store"
	"github.com/TSENGHUNGLIN/chenyang-learning-platform-sub001/internal/table"
)

var (
	errRateLimited = errors.New("rate limit exceeded")
	errBadRequest  = errors.New("malformed request")
)

// badRequest wraps a malformed-request error with its user message.
func badRequest(err error) error {
	return &core.UserError{
		Technical: fmt.Errorf("%w: %v", errBadRequest, err),
		User: core.UserMessage{
			Message: "The request could not be read",
			Action:  "Send the CSV as the multipart field \"file\" or as the request body",
			Code:    "REQ001",
		},
	}
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrFetchURL), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rules.ErrUnknownSchema), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFetchDisabled), errors.Is(err, core.ErrFetchHost):
		return http.StatusForbidden
	case errors.Is(err, core.ErrFetchStatus):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrTooManyPreviews):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case core.MapError(err).Code == "FETCH005":
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message. A zero status
// means statusFor(err).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	if status == 0 {
		status = statusFor(err)
	}
	msg := core.MapError(err)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// authFailure renders API key rejections in the common error shape.
func authFailure(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Message: message,
		Action:  "Send a valid key in the X-API-Key header",
		Code:    code,
	})
}

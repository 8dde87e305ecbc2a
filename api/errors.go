package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRequestFailed matches every *Error.
var ErrRequestFailed = errors.New("identity server request failed")

// ErrorDetail is one entry of a server error response.
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	LongMessage string `json:"long_message,omitempty"`
}

// Error is a non-2xx response from the identity server.
type Error struct {
	StatusCode int           `json:"-"`
	Errors     []ErrorDetail `json:"errors"`
	TraceID    string        `json:"trace_id,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("identity server returned status %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msg := d.LongMessage
		if msg == "" {
			msg = d.Message
		}
		if d.Code != "" {
			msg = d.Code + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return fmt.Sprintf("identity server returned status %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrRequestFailed
}

// HasCode reports whether any detail carries code.
func (e *Error) HasCode(code string) bool {
	for _, d := range e.Errors {
		if d.Code == code {
			return true
		}
	}
	return false
}

func parseError(status int, body []byte) *Error {
	apiErr := &Error{}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr = &Error{}
	}
	apiErr.StatusCode = status
	return apiErr
}

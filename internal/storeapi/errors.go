package storeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
)

// CodeUserNotReady is returned when the account has not signed the developer agreement.
const CodeUserNotReady = "user-not-ready"

// DefaultErrorMessage stands in for error list items without a message.
const DefaultErrorMessage = "An error occurred"

var (
	// ErrMissingCredentials signals a call without a macaroon pair.
	ErrMissingCredentials = errors.AuthError("store credentials missing").Build()

	// ErrUnauthorized signals the dashboard rejected the macaroons.
	ErrUnauthorized = errors.AuthError("store API rejected credentials").Build()
)

// APIError is one item of a dashboard error list.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorList is returned when the dashboard answers with an `error_list` body.
type ErrorList struct {
	Status int
	Errors []APIError
}

func (e *ErrorList) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.Code+": "+item.Message)
	}
	return fmt.Sprintf("store API error list (status %d): %s", e.Status, strings.Join(parts, "; "))
}

// HasCode reports whether any item carries code.
func (e *ErrorList) HasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Code == code {
			return true
		}
	}
	return false
}

// Messages returns one display message per item.
func (e *ErrorList) Messages() []string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Message == "" {
			msgs = append(msgs, DefaultErrorMessage)
			continue
		}
		msgs = append(msgs, item.Message)
	}
	return msgs
}

// decodeError maps dashboard error responses. An error_list body always wins;
// otherwise 401 and 403 both mean the macaroons are no good.
func decodeError(status int, body []byte) error {
	var payload struct {
		ErrorList []APIError `json:"error_list"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.ErrorList) > 0 {
		return &ErrorList{Status: status, Errors: payload.ErrorList}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrUnauthorized.WithContext("code", status)
	}
	return nil
}

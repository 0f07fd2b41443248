package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalid           = errors.New("invalid")
)

// Error is a non-2xx answer from the push server.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("push server: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("push server: %d %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// errorMessage renders a server error body. Constraint violations come back as a
// JSON object of field -> message; everything else is plain text.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var violations map[string]string
	if err := json.Unmarshal(body, &violations); err == nil && len(violations) > 0 {
		fields := make([]string, 0, len(violations))
		for f := range violations {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f+": "+violations[f])
		}
		return strings.Join(parts, "; ")
	}
	return text
}

package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// AuthError indicates the bearer token was rejected (401/403). Views
// respond by sending the user back to sign-in.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx response other than an auth failure.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("portal API error (%d) on %s %s: %s", e.Status, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("unexpected status %d on %s %s", e.Status, e.Method, e.Path)
}

// errorBody covers the shapes the backend uses for error payloads.
type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Detail  string            `json:"detail"`
	Errors  map[string]string `json:"errors"`
}

// serverMessage extracts a human-readable message from an error body, or
// falls back to the trimmed raw text.
func serverMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		for _, s := range []string{eb.Message, eb.Detail, eb.Error} {
			if strings.TrimSpace(s) != "" {
				return s
			}
		}
		if len(eb.Errors) > 0 {
			parts := make([]string, 0, len(eb.Errors))
			for field, msg := range eb.Errors {
				parts = append(parts, field+": "+msg)
			}
			return strings.Join(parts, "; ")
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "…"
	}
	if strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}

// UserMessage turns an error into the short text shown in a snackbar or
// inline. fallback is used when nothing better is known.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Your session has expired. Please sign in again."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "The server took too long to respond."
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "Could not reach the server. Check your connection."
	}

	return fallback
}

package chartdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FallbackErrorMessage is shown when nothing better can be extracted
const FallbackErrorMessage = "Sorry, An error occurred"

// ClientError is a failed response from the chart data endpoint
type ClientError struct {
	StatusCode int
	ErrorText  string `json:"error"`
	Message    string `json:"message"`
	Errors     []struct {
		Message   string `json:"message"`
		ErrorType string `json:"error_type"`
	} `json:"errors"`
}

func (e *ClientError) Error() string {
	if msg := e.text(); msg != "" {
		return msg
	}
	return fmt.Sprintf("chart data request failed with status %d", e.StatusCode)
}

// text picks the most specific message the payload carries
func (e *ClientError) text() string {
	if e.ErrorText != "" {
		return e.ErrorText
	}
	if e.Message != "" {
		return e.Message
	}
	for _, item := range e.Errors {
		if item.Message != "" {
			return item.Message
		}
	}
	return ""
}

// parseClientError decodes an error body. Bodies that are not JSON become the
// message verbatim.
func parseClientError(status int, body []byte) *ClientError {
	ce := &ClientError{StatusCode: status}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ce
	}
	if err := json.Unmarshal(body, ce); err != nil {
		if !strings.HasPrefix(trimmed, "<") {
			ce.Message = trimmed
		}
	}
	return ce
}

// Normalize converts any fetch failure into the text shown in the panel
func Normalize(err error) string {
	if err == nil {
		return ""
	}

	var ce *ClientError
	if errors.As(err, &ce) {
		if msg := ce.text(); msg != "" {
			return msg
		}
		if ce.StatusCode != 0 {
			if text := http.StatusText(ce.StatusCode); text != "" {
				return text
			}
		}
		return FallbackErrorMessage
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}

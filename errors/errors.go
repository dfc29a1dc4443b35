package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is the single error shape every transport call resolves to.
// A non-2xx response, an unparseable body and a socket-level failure all
// normalize into this contract; callers never see a raw transport error.
type RequestError struct {
	Message   string `json:"message"`
	RawStatus int    `json:"raw_status"`
}

func (e *RequestError) Error() string {
	if e.RawStatus == 0 {
		return fmt.Sprintf("iComplain request failed: %s", e.Message)
	}
	return fmt.Sprintf("iComplain request failed (%d): %s", e.RawStatus, e.Message)
}

// errorBody is the error payload shape the backend emits. Both fields are
// optional; detail may be a plain string or a list of field errors.
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

// FromResponse builds a RequestError from a non-2xx response body.
// Precedence: structured "message", then "detail" (a field-error list is
// joined into one readable string), then the transport's status text.
func FromResponse(status int, body []byte) *RequestError {
	e := &RequestError{RawStatus: status}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			e.Message = parsed.Message
			return e
		}
		if msg := flattenDetail(parsed.Detail); msg != "" {
			e.Message = msg
			return e
		}
	}

	e.Message = http.StatusText(status)
	if e.Message == "" {
		e.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return e
}

// FromTransport wraps a socket-level failure into the same contract.
// RawStatus 0 marks errors that never reached the server.
func FromTransport(err error) *RequestError {
	return &RequestError{Message: err.Error(), RawStatus: 0}
}

func flattenDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields []fieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				parts = append(parts, f.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

// IsRequestError checks if an error carries the normalized contract.
func IsRequestError(err error) bool {
	_, ok := err.(*RequestError)
	return ok
}

// IsNotFound checks if an error is a 404. The feedback store relies on this
// to map "no feedback yet" to an empty collection instead of an error.
func IsNotFound(err error) bool {
	if reqErr, ok := err.(*RequestError); ok {
		return reqErr.RawStatus == http.StatusNotFound
	}
	return false
}

// IsUnauthorized checks if an error is a 401 or 403, which the auth store
// treats as "signed out" rather than a failure.
func IsUnauthorized(err error) bool {
	if reqErr, ok := err.(*RequestError); ok {
		return reqErr.RawStatus == http.StatusUnauthorized || reqErr.RawStatus == http.StatusForbidden
	}
	return false
}

// Message returns the human-readable message carried by a normalized error,
// without the status prefix Error() adds. Stores record this directly so
// snapshot errors read the way the server wrote them.
func Message(err error) string {
	if reqErr, ok := err.(*RequestError); ok {
		return reqErr.Message
	}
	return err.Error()
}

// Status returns the HTTP status carried by a normalized error, or 0 for
// transport-level failures and foreign error types.
func Status(err error) int {
	if reqErr, ok := err.(*RequestError); ok {
		return reqErr.RawStatus
	}
	return 0
}

package taxjar

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an Error.
type ErrorType string

const (
	// ErrorTypeTransport means no HTTP response was received: connection
	// failures, timeouts, cancelled contexts and transport policies such as
	// an open circuit.
	ErrorTypeTransport ErrorType = "Transport"
	// ErrorTypeAPI means the API answered with a non-2xx status.
	ErrorTypeAPI ErrorType = "API"
	// ErrorTypeParse means a 2xx response body could not be decoded.
	ErrorTypeParse ErrorType = "Parse"
	// ErrorTypeRequest means the request could not be built.
	ErrorTypeRequest ErrorType = "Request"
)

// Sentinels for errors.Is. Matching compares Type only.
var (
	ErrTransport = &Error{Type: ErrorTypeTransport}
	ErrAPI       = &Error{Type: ErrorTypeAPI}
	ErrParse     = &Error{Type: ErrorTypeParse}
	ErrRequest   = &Error{Type: ErrorTypeRequest}
)

// Error is returned by every Client operation.
type Error struct {
	Type    ErrorType
	Message string

	// StatusCode, Status and Body are set when a response was received.
	StatusCode int
	Status     string
	Body       []byte
	// Detail is the "detail" member of an API error document.
	Detail string

	Cause error
}

// Error implements error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "taxjar: %s error", e.Type)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (%d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same Type.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

// DebugInfo renders the error with its response context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error Type: %s\n", e.Type)
	fmt.Fprintf(&b, "Message: %s\n", e.Message)
	if e.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", e.Status)
	} else if e.StatusCode != 0 {
		fmt.Fprintf(&b, "Status: %d\n", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, "Detail: %s\n", e.Detail)
	}
	if len(e.Body) > 0 {
		fmt.Fprintf(&b, "Body: %s\n", e.Body)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, "Cause: %v\n", e.Cause)
	}
	return b.String()
}

// IsTransportError reports whether err is a transport error.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsAPIError reports whether err is an API error.
func IsAPIError(err error) bool {
	return errors.Is(err, ErrAPI)
}

// IsParseError reports whether err is a parse error.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// apiErrorDocument is the body the API sends with a non-2xx status.
type apiErrorDocument struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func newAPIError(resp *http.Response, body []byte) *Error {
	e := &Error{
		Type:       ErrorTypeAPI,
		Message:    http.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}

	var doc apiErrorDocument
	if json.Unmarshal(body, &doc) == nil {
		if doc.Error != "" {
			e.Message = doc.Error
		}
		if doc.Detail != "" {
			e.Detail = doc.Detail
			e.Message = e.Message + ": " + doc.Detail
		}
	}
	if e.Message == "" {
		e.Message = "unexpected status"
	}
	return e
}

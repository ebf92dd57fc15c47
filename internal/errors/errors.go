// Package errors classifies failures returned by the complaint backend.
//
// Every HTTP failure is turned into an *APIError carrying a Kind, the original
// status code and the server message. Classify maps any error to a Kind plus a
// message suitable for direct display.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the coarse category of a failure.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindUnknown      Kind = "unknown"
)

// Default display messages per kind.
const (
	MsgNetwork      = "Unable to reach the server. Check your connection and try again."
	MsgUnauthorized = "Your session has expired. Please log in again."
	MsgForbidden    = "You do not have permission to perform this action."
	MsgValidation   = "Validation failed. Please check your input."
	MsgNotFound     = "The requested resource was not found."
	MsgServer       = "The server encountered an error. Please try again later."
	MsgUnknown      = "Something went wrong. Please try again."
)

// APIError is a failed backend call.
type APIError struct {
	Kind       Kind
	StatusCode int
	// Message is the server supplied message, empty when the body had none.
	Message string
	// Fields holds per-field validation messages from 422 responses.
	Fields map[string][]string
	// Body is the raw response body, truncated by the HTTP client.
	Body []byte
	// Err is the underlying transport error for KindNetwork.
	Err error
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindNetwork && e.Err != nil:
		return fmt.Sprintf("network error: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// DisplayMessage returns the message to show a user for this error.
func (e *APIError) DisplayMessage() string {
	if e.Kind == KindValidation && e.Message == "" {
		if first := e.FirstFieldError(); first != "" {
			return first
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return defaultMessage(e.Kind)
}

// FirstFieldError returns the first validation message in field name order.
func (e *APIError) FirstFieldError() string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msgs := e.Fields[name]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// KindForStatus maps an HTTP status code to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// FromResponse builds an APIError from a non-2xx status and its body.
func FromResponse(status int, body []byte) *APIError {
	apiErr := &APIError{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Body:       body,
	}
	if !gjson.ValidBytes(body) {
		return apiErr
	}

	parsed := gjson.ParseBytes(body)
	if msg := parsed.Get("message"); msg.Type == gjson.String {
		apiErr.Message = strings.TrimSpace(msg.String())
	}
	if apiErr.Message == "" {
		if msg := parsed.Get("error"); msg.Type == gjson.String {
			apiErr.Message = strings.TrimSpace(msg.String())
		}
	}

	if fields := parsed.Get("errors"); fields.IsObject() {
		apiErr.Fields = make(map[string][]string)
		fields.ForEach(func(key, value gjson.Result) bool {
			var msgs []string
			if value.IsArray() {
				for _, m := range value.Array() {
					msgs = append(msgs, m.String())
				}
			} else {
				msgs = append(msgs, value.String())
			}
			apiErr.Fields[key.String()] = msgs
			return true
		})
	}
	return apiErr
}

// Network wraps a transport failure.
func Network(err error) *APIError {
	return &APIError{Kind: KindNetwork, Err: err}
}

// Validation builds a client-side validation error that never reached the server.
func Validation(field, message string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Fields:  map[string][]string{field: {message}},
	}
}

// Classify returns the Kind and display message for any error.
func Classify(err error) (Kind, string) {
	if err == nil {
		return "", ""
	}
	kind := KindOf(err)
	// The outermost displayer wins so wrappers can override the message.
	var displayer interface{ DisplayMessage() string }
	if stderrors.As(err, &displayer) {
		return kind, displayer.DisplayMessage()
	}
	return kind, MsgUnknown
}

// KindOf returns the Kind of err, KindUnknown when it is not an APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by err, 0 when there is none.
func StatusCode(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsForbidden(err error) bool    { return KindOf(err) == KindForbidden }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNetwork(err error) bool      { return KindOf(err) == KindNetwork }

func defaultMessage(kind Kind) string {
	switch kind {
	case KindNetwork:
		return MsgNetwork
	case KindUnauthorized:
		return MsgUnauthorized
	case KindForbidden:
		return MsgForbidden
	case KindValidation:
		return MsgValidation
	case KindNotFound:
		return MsgNotFound
	case KindServer:
		return MsgServer
	default:
		return MsgUnknown
	}
}

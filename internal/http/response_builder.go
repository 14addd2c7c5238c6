// Package http serves the subscription API.
//
// This file implements the Builder Pattern for JSON envelope responses so
// every handler renders {success, data, error, details} the same way.

package http

import (
	"encoding/json"
	"net/http"

	"subtrack/internal/storage"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
	Details    any                 `json:"details,omitempty"`
	Pagination *storage.Pagination `json:"pagination,omitempty"`
	Meta       map[string]any      `json:"meta,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building API responses.
type JSONResponseBuilder struct {
	statusCode int
	envelope   Envelope
	headers    map[string]string
}

// NewJSONResponse creates a successful response with a 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		envelope:   Envelope{Success: true},
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.envelope.Data = v
	return b
}

// Message sets a human readable note.
func (b *JSONResponseBuilder) Message(msg string) *JSONResponseBuilder {
	b.envelope.Message = msg
	return b
}

// Pagination attaches paging information.
func (b *JSONResponseBuilder) Pagination(p storage.Pagination) *JSONResponseBuilder {
	b.envelope.Pagination = &p
	return b
}

// Meta adds one metadata entry.
func (b *JSONResponseBuilder) Meta(key string, value any) *JSONResponseBuilder {
	if b.envelope.Meta == nil {
		b.envelope.Meta = make(map[string]any)
	}
	b.envelope.Meta[key] = value
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.envelope)
}

// ErrorResponse creates a failed response.
func ErrorResponse(statusCode int, message string, details any) *JSONResponseBuilder {
	b := NewJSONResponse().Status(statusCode)
	b.envelope.Success = false
	b.envelope.Error = message
	b.envelope.Details = details
	return b
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string, details any) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message, details)
}

// ValidationError creates a 422 response listing problems per field.
func ValidationError(details map[string]string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "Validation failed", details)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message, nil)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message, nil)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
}

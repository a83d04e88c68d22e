// Package httperr provides typed HTTP errors raised by handlers and middleware.
// A single terminal error handler converts them into the JSON error envelope.
package httperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Response is the JSON envelope every error is rendered as.
type Response struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Expose reports whether the message may be sent to the client.
// Server-side failures are replaced with a generic description.
func (e *Error) Expose() bool {
	return e.Status < http.StatusInternalServerError
}

// PublicMessage returns the message safe to serialize for the client.
func (e *Error) PublicMessage() string {
	if e.Expose() {
		return e.Message
	}
	return "Internal Server Error"
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

func PayloadTooLarge(message string) *Error {
	return New(http.StatusRequestEntityTooLarge, message)
}

func UnsupportedMediaType(message string) *Error {
	return New(http.StatusUnsupportedMediaType, message)
}

func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// From normalizes any error raised inside the handler chain into an *Error.
// Fiber's own errors (unmatched methods, body limit) keep their status code.
func From(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return New(fiberErr.Code, fiberErr.Message)
	}

	return Internal(err.Error())
}

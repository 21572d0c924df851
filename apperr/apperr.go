// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package apperr holds the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDuplicateVote is returned when the user already has a vote in the poll.
var ErrDuplicateVote = errors.New("user has already cast their vote in this poll")

// ErrUnauthorized is returned when an operation needs a signed-in user.
var ErrUnauthorized = errors.New("full authentication is required to access this resource")

// NotFoundError reports a lookup miss on Resource by Field.
type NotFoundError struct {
	Resource string
	Field    string
	Value    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s : '%v'", e.Resource, e.Field, e.Value)
}

func NotFound(resource, field string, value any) error {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

// InvalidRequestError carries a client-facing reason.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return e.Reason
}

func InvalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError means required reference data is missing. It is fatal at
// startup and a 500 if hit while serving.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration fault: %s is not set", e.Missing)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	var nf *NotFoundError
	var ir *InvalidRequestError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrDuplicateVote):
		return http.StatusBadRequest
	case errors.As(err, &ir):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Machine-readable error codes, stable across message wording changes
const (
	CodeNotFound       = "not_found"
	CodeInvalidRequest = "invalid_request"
	CodeDuplicateVote  = "duplicate_vote"
	CodeUnauthorized   = "unauthorized"
	CodeInternal       = "internal_error"
)

// Code returns the error code clients can switch on. A duplicate vote has its
// own code even though it shares the 400 status with invalid requests.
func Code(err error) string {
	var nf *NotFoundError
	var ir *InvalidRequestError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &nf):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrDuplicateVote):
		return CodeDuplicateVote
	case errors.As(err, &ir):
		return CodeInvalidRequest
	default:
		return CodeInternal
	}
}

// Message returns the client-visible text for err. Internal errors are not leaked.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

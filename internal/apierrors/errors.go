// Package apierrors contains the errors returned by the admin API client and its session storage.
package apierrors

import (
	"errors"
	"fmt"
)

var ErrTransportFailure = fmt.Errorf("the backend could not be reached or failed to respond")
var ErrAPI = fmt.Errorf("the backend reported a failure")
var ErrAuthenticationExpired = fmt.Errorf("the session is expired and could not be refreshed")
var ErrMalformedResponse = fmt.Errorf("the backend response does not follow the envelope contract")

var ErrTokensNotFound = fmt.Errorf("the session tokens cannot be found")
var ErrAdminNotFound = fmt.Errorf("the admin profile cannot be found")
var ErrMissingDBResource = fmt.Errorf("the requested resource cannot be found in the DB")
var ErrNotLoggedIn = fmt.Errorf("there is no active admin session")

// APIError is the rejected outcome surfaced to callers of the request pipeline.
type APIError struct {
	// Kind is one of the sentinel errors above and decides what errors.Is matches.
	Kind       error
	Message    string
	StatusCode int
	// Code is the error code reported in the envelope, 0 when the backend sent none.
	Code    int
	Details map[string]any
	cause   error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() []error {
	output := []error{}
	if e.Kind != nil {
		output = append(output, e.Kind)
	}
	if e.cause != nil {
		output = append(output, e.cause)
	}
	return output
}

func NewTransportFailure(statusCode int, cause error) *APIError {
	message := ErrTransportFailure.Error()
	if cause != nil {
		message = cause.Error()
	}
	return &APIError{Kind: ErrTransportFailure, Message: message, StatusCode: statusCode, cause: cause}
}

func NewAPIError(message string, statusCode int, details map[string]any) *APIError {
	if message == "" {
		message = "API request failed"
	}
	return &APIError{Kind: ErrAPI, Message: message, StatusCode: statusCode, Details: details}
}

func NewAuthenticationExpired(cause error) *APIError {
	message := ErrAuthenticationExpired.Error()
	statusCode := 401
	var apiErr *APIError
	if errors.As(cause, &apiErr) && apiErr.Message != "" {
		message = message + ": " + apiErr.Message
	}
	return &APIError{Kind: ErrAuthenticationExpired, Message: message, StatusCode: statusCode, cause: cause}
}

func NewMalformedResponse(statusCode int, cause error) *APIError {
	message := ErrMalformedResponse.Error()
	if cause != nil {
		message = message + ": " + cause.Error()
	}
	return &APIError{Kind: ErrMalformedResponse, Message: message, StatusCode: statusCode, cause: cause}
}

// StatusCode returns the status code carried by err or 0 when there is none.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

package cloudauth

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoToken is returned when an operation needs a token and none is held.
	ErrNoToken = errors.New("cloudauth: no token")

	// ErrTokenNotFound is returned by a TokenStore with nothing saved for an account.
	ErrTokenNotFound = errors.New("cloudauth: stored token not found")

	// ErrMalformedToken indicates an access token without a decodable claims segment.
	ErrMalformedToken = errors.New("cloudauth: malformed access token")

	// ErrMissingExpiry indicates an access token whose claims carry no exp.
	ErrMissingExpiry = errors.New("cloudauth: access token has no exp claim")

	// ErrMissingCSRF is returned when the login page sets no _csrf cookie.
	ErrMissingCSRF = errors.New("cloudauth: login page did not set _csrf cookie")

	// ErrMissingCode is returned when the final redirect carries no authorization code.
	ErrMissingCode = errors.New("cloudauth: redirect has no authorization code")

	// ErrMissingClientID is returned when the backend login returns no clientId.
	ErrMissingClientID = errors.New("cloudauth: backend login returned no clientId")
)

// ResponseError reports a response whose status differs from the expected one.
type ResponseError struct {
	Name     string
	Expected int
	Actual   int
	Body     string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("cloudauth: %s: expected status code %d, received %d: %s",
		e.Name, e.Expected, e.Actual, e.Body)
}

// RequestError wraps a transport failure (DNS, connection, timeout).
type RequestError struct {
	Name string
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("cloudauth: %s: request failed: %v", e.Name, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ParseError reports a response body that is not the JSON the call expects.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cloudauth: %s: parsing response: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthenticationError reports a failed step of the login or refresh flow.
type AuthenticationError struct {
	Step string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("cloudauth: authentication failed at %s: %v", e.Step, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func authError(step string, err error) error {
	return &AuthenticationError{Step: step, Err: err}
}

package main

import (
	"errors"
	"fmt"
)

// This file defines the error taxonomy shared by the aggregation layer. Handlers
// inspect these with errors.As to decide between 400 and 500 responses, and the
// dashboard uses them to decide what to log.

var errEmptyTimezone = errors.New("timezone is empty")

// ConfigError reports a missing or unusable configuration value.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration %s is not set", e.Key)
	}
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}

// AuthError reports that calendar credentials could not be loaded or parsed.
// Err carries the underlying cause, which may itself be a *ConfigError.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "calendar auth: " + e.Reason
	}
	return fmt.Sprintf("calendar auth: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed call to an upstream service: transport errors,
// non-2xx responses and undecodable bodies all end up here.
type FetchError struct {
	Upstream   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Upstream, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Upstream, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidTimezoneError reports an identifier that is not in the IANA database.
type InvalidTimezoneError struct {
	Timezone string
	Err      error
}

func (e *InvalidTimezoneError) Error() string {
	return fmt.Sprintf("invalid timezone %q: %v", e.Timezone, e.Err)
}

func (e *InvalidTimezoneError) Unwrap() error { return e.Err }

// ValidationError reports a bad request parameter at the HTTP boundary.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// newFetchError wraps err unless it is already a *FetchError.
func newFetchError(upstream string, status int, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Upstream: upstream, StatusCode: status, Err: err}
}

// isClientError reports whether err should be answered with 400.
func isClientError(err error) bool {
	var ve *ValidationError
	var tze *InvalidTimezoneError
	return errors.As(err, &ve) || errors.As(err, &tze)
}

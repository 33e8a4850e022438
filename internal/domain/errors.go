package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingCredentials = errors.New("missing client id and/or client secret")
	ErrAlreadyInProgress  = errors.New("another operation is already in progress")
)

// AuthError is returned when WarcraftLogs rejects a request, either with a non-200
// status or with an error-shaped body.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return strings.TrimSpace(fmt.Sprintf("WarcraftLogs returned Status:%d (%s)", e.Status, strings.TrimSpace(e.Message)))
}

type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed fetch %s (%v)", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "failed to parse " + e.What
	}
	return fmt.Sprintf("failed to parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EmptyResultError means the response was well formed but carried no character.
type EmptyResultError struct {
	Snippet string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("WarcraftLogs returned invalid response (%s)", e.Snippet)
}

type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s:%q", e.Field, e.Value)
}

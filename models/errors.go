package models

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeConfig       = "CONFIG_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeEvaluation   = "EVALUATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeExhausted    = "RETRIES_EXHAUSTED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// Kind groups error codes by how the retry loop and the HTTP layer treat them.
type Kind int

const (
	// KindTransient failures are retried with a fresh session.
	KindTransient Kind = iota
	// KindConfig failures are fatal and never retried.
	KindConfig
	// KindNotFound is terminal: the profile is absent or inaccessible.
	KindNotFound
	// KindCanceled means the caller gave up; no further work is done.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	case KindCanceled:
		return "canceled"
	default:
		return "transient"
	}
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Kind reports the retry classification of the error code.
func (e *ScrapeError) Kind() Kind {
	switch e.Code {
	case ErrCodeConfig:
		return KindConfig
	case ErrCodeNotFound:
		return KindNotFound
	default:
		return KindTransient
	}
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// KindOf classifies any error. The outermost ScrapeError decides, except that
// context cancellation always wins: a canceled request is never retried.
func KindOf(err error) Kind {
	if err == nil {
		return KindTransient
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind()
	}
	return KindTransient
}

// IsNotFound reports whether err means the profile does not exist.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// CodeOf returns the code of the outermost ScrapeError, or ErrCodeInternal.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

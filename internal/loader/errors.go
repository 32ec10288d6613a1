package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRetrievalFailed = errors.New("retrieval failed")
	ErrInapplicable    = errors.New("strategy does not apply to this URL")
	ErrEmptyContent    = errors.New("empty content")
	ErrLoadFailed      = errors.New("all strategies failed")
	ErrTimeout         = errors.New("load timed out")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrCannotBeEmpty   = errors.New("URL cannot be empty")
)

// RetrievalError is the failure of a single strategy for a single URL.
type RetrievalError struct {
	Strategy string
	URL      string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalFailed, e.Err}
}

// Failure summarizes one failed attempt of a load.
type Failure struct {
	Strategy string
	Err      error
	Elapsed  time.Duration
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (%s): %v", f.Strategy, f.Elapsed.Round(time.Millisecond), f.Err)
}

// AggregateError is returned when every strategy failed.
type AggregateError struct {
	URL      string
	Failures []Failure
}

func (e *AggregateError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("failed to load %s: no strategies configured", e.URL)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("failed to load %s: %s", e.URL, strings.Join(parts, "; "))
}

func (e *AggregateError) Is(target error) bool {
	return target == ErrLoadFailed
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// TimeoutError is returned when the load deadline expired first.
type TimeoutError struct {
	URL      string
	Timeout  time.Duration
	Attempts []Failure
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("loading %s timed out after %s", e.URL, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

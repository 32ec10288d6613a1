package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muratoffalex/linkreader/internal/logger"
)

const (
	DefaultTimeout = 30 * time.Second

	validateStepName = "validate"
)

// ContentLoader is what callers depend on.
type ContentLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Loader validates and normalizes a URL and runs the chain under a hard
// deadline.
type Loader struct {
	aliases *AliasTable
	chain   *Chain
	timeout time.Duration
	logger  logger.Logger
}

type Option func(*Loader)

func WithAliases(aliases *AliasTable) Option {
	return func(l *Loader) {
		l.aliases = aliases
	}
}

// WithTimeout sets the deadline of a single Load. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		l.logger = log
	}
}

func New(chain *Chain, opts ...Option) *Loader {
	l := &Loader{
		aliases: MustDefaultAliasTable(),
		chain:   chain,
		timeout: DefaultTimeout,
		logger:  logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Timeout() time.Duration {
	return l.timeout
}

// Normalize applies the alias table to url.
func (l *Loader) Normalize(url string) string {
	return l.aliases.Normalize(url)
}

type chainOutcome struct {
	content  string
	failures []Failure
	err      error
}

// Load returns the cleaned content of url or an *AggregateError,
// a *TimeoutError, or an error wrapping context.Canceled.
func (l *Loader) Load(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", &AggregateError{
			URL:      rawURL,
			Failures: []Failure{{Strategy: validateStepName, Err: err}},
		}
	}

	url := l.aliases.Normalize(rawURL)
	log := l.logger.WithField("url", url)
	if url != rawURL {
		log.WithField("original_url", rawURL).Debug("URL normalized")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	// buffered so an abandoned chain can always finish and exit
	done := make(chan chainOutcome, 1)
	go func() {
		content, failures, err := l.chain.Run(ctx, url)
		done <- chainOutcome{content: content, failures: failures, err: err}
	}()

	select {
	case outcome := <-done:
		if outcome.err == nil {
			return outcome.content, nil
		}
		if ctx.Err() != nil {
			return "", l.contextError(ctx, url, outcome.failures)
		}
		log.WithError(outcome.err).Warn("Failed to load URL")
		return "", outcome.err
	case <-ctx.Done():
		return "", l.contextError(ctx, url, nil)
	}
}

func (l *Loader) contextError(ctx context.Context, url string, attempts []Failure) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		l.logger.WithFields(logger.Fields{
			"url":     url,
			"timeout": l.timeout.String(),
		}).Warn("Load timed out")
		return &TimeoutError{URL: url, Timeout: l.timeout, Attempts: attempts}
	}
	return fmt.Errorf("loading %s: %w", url, ctx.Err())
}

package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muratoffalex/linkreader/internal/logger"
)

// NormalizeFunc cleans raw strategy output before it is checked for emptiness.
type NormalizeFunc func(raw string) string

type chainState int

const (
	stateStart chainState = iota
	stateTryNext
	stateSucceeded
	stateExhausted
	stateAbandoned
)

func (s chainState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateTryNext:
		return "try_next"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	case stateAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Chain tries strategies in order until one yields non-empty content.
// It is immutable after NewChain; every Run keeps its own state.
type Chain struct {
	strategies []Strategy
	normalize  NormalizeFunc
	logger     logger.Logger
}

func NewChain(l logger.Logger, normalize NormalizeFunc, strategies ...Strategy) *Chain {
	if normalize == nil {
		normalize = strings.TrimSpace
	}
	chain := &Chain{
		strategies: make([]Strategy, 0, len(strategies)),
		normalize:  normalize,
		logger:     l,
	}

	seen := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if _, ok := seen[s.Name()]; ok {
			l.WithField("strategy", s.Name()).Warn("Duplicate strategy ignored")
			continue
		}
		seen[s.Name()] = struct{}{}
		chain.strategies = append(chain.strategies, s)
	}

	return chain
}

func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

type chainRun struct {
	state    chainState
	next     int
	content  string
	failures []Failure
}

// Run returns the first non-empty normalized content. When every strategy
// failed the error is an *AggregateError; when ctx ended before the chain
// could finish it is ctx.Err(). Failures lists every failed attempt so far.
func (c *Chain) Run(ctx context.Context, url string) (string, []Failure, error) {
	run := &chainRun{state: stateStart}
	log := c.logger.WithField("url", url)

	for {
		switch run.state {
		case stateStart:
			run.state = stateTryNext

		case stateTryNext:
			if run.next >= len(c.strategies) {
				run.state = stateExhausted
				continue
			}
			if ctx.Err() != nil {
				run.state = stateAbandoned
				continue
			}

			strategy := c.strategies[run.next]
			run.next++

			started := time.Now()
			content, err := c.attempt(ctx, strategy, url)
			elapsed := time.Since(started)
			if err != nil {
				run.failures = append(run.failures, Failure{
					Strategy: strategy.Name(),
					Err:      err,
					Elapsed:  elapsed,
				})
				log.WithFields(logger.Fields{
					"strategy": strategy.Name(),
					"error":    err.Error(),
					"elapsed":  elapsed.String(),
				}).Info("Strategy failed")
				continue
			}

			log.WithFields(logger.Fields{
				"strategy": strategy.Name(),
				"elapsed":  elapsed.String(),
			}).Debug("Strategy succeeded")
			run.content = content
			run.state = stateSucceeded

		case stateSucceeded:
			return run.content, run.failures, nil

		case stateExhausted:
			return "", run.failures, &AggregateError{URL: url, Failures: run.failures}

		case stateAbandoned:
			return "", run.failures, ctx.Err()
		}
	}
}

func (c *Chain) attempt(ctx context.Context, strategy Strategy, url string) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = ""
			err = &RetrievalError{Strategy: strategy.Name(), URL: url, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	raw, err := strategy.Load(ctx, url)
	if err != nil {
		var retrievalErr *RetrievalError
		if !errors.As(err, &retrievalErr) {
			err = &RetrievalError{Strategy: strategy.Name(), URL: url, Err: err}
		}
		return "", err
	}

	content = strings.TrimSpace(c.normalize(raw))
	if content == "" {
		return "", &RetrievalError{Strategy: strategy.Name(), URL: url, Err: ErrEmptyContent}
	}

	return content, nil
}

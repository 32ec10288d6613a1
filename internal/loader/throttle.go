package loader

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledStrategy limits how often the wrapped strategy is called. Waiting
// for a slot counts against the load deadline.
type ThrottledStrategy struct {
	Strategy
	limiter *rate.Limiter
}

// NewThrottledStrategy allows perMinute calls per minute with a burst of one.
// Non-positive perMinute returns s unchanged.
func NewThrottledStrategy(s Strategy, perMinute int) Strategy {
	if perMinute <= 0 {
		return s
	}
	return &ThrottledStrategy{
		Strategy: s,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (t *ThrottledStrategy) Load(ctx context.Context, url string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", &RetrievalError{Strategy: t.Name(), URL: url, Err: err}
	}
	return t.Strategy.Load(ctx, url)
}

package loader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalError(t *testing.T) {
	err := &RetrievalError{Strategy: "pdf", URL: testURL, Err: ErrNoPDFText}

	assert.Equal(t, "pdf: PDF has no extractable text", err.Error())
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, ErrNoPDFText)
}

func TestAggregateError(t *testing.T) {
	err := &AggregateError{
		URL: testURL,
		Failures: []Failure{
			{Strategy: "http", Err: &RetrievalError{Strategy: "http", Err: ErrInapplicable}, Elapsed: 1500 * time.Microsecond},
			{Strategy: "browser", Err: &RetrievalError{Strategy: "browser", Err: ErrBrowserNotFound}},
		},
	}

	assert.Equal(t,
		"failed to load https://example.com/article: http (2ms): http: strategy does not apply to this URL; browser (0s): browser: chrome executable not found",
		err.Error())
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, ErrInapplicable)
	assert.ErrorIs(t, err, ErrBrowserNotFound)
	assert.NotErrorIs(t, err, ErrTimeout)

	empty := &AggregateError{URL: testURL}
	assert.Equal(t, "failed to load https://example.com/article: no strategies configured", empty.Error())
	assert.ErrorIs(t, empty, ErrLoadFailed)
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{URL: testURL, Timeout: 30 * time.Second}

	assert.Equal(t, "loading https://example.com/article timed out after 30s", err.Error())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrLoadFailed)

	var timeoutErr *TimeoutError
	assert.True(t, errors.As(error(err), &timeoutErr))
}

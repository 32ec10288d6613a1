package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muratoffalex/linkreader/internal/loader"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	mu       sync.Mutex
	results  map[string]string
	errs     map[string]error
	loaded   []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubLoader) Load(_ context.Context, url string) (string, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	s.mu.Lock()
	s.loaded = append(s.loaded, url)
	s.mu.Unlock()

	if err, ok := s.errs[url]; ok {
		return "", err
	}
	return s.results[url], nil
}

func newTestApplication(t *testing.T, l loader.ContentLoader, concurrency int) (*Application, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	app := NewWithLoader(l, localizer, concurrency, logger.NewTestLogger())
	var stdout, stderr bytes.Buffer
	app.SetIO(strings.NewReader(""), &stdout, &stderr)
	return app, &stdout, &stderr
}

func TestApplication_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("results in input order", func(t *testing.T) {
		stub := &stubLoader{results: map[string]string{
			"https://a.example": "first",
			"https://b.example": "second",
		}}
		app, stdout, stderr := newTestApplication(t, stub, 4)

		err := app.Run(ctx, []string{"https://a.example", "https://b.example"})

		require.NoError(t, err)
		assert.Equal(t, "==> https://a.example\nfirst\n\n==> https://b.example\nsecond\n\n", stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("failures are localized", func(t *testing.T) {
		stub := &stubLoader{
			results: map[string]string{"https://ok.example": "fine"},
			errs: map[string]error{
				"https://slow.example": &loader.TimeoutError{URL: "https://slow.example", Timeout: 30 * time.Second},
				"https://gone.example": &loader.AggregateError{URL: "https://gone.example", Failures: []loader.Failure{
					{Strategy: "http", Err: &loader.RetrievalError{Strategy: "http", Err: errors.New("not found (404)")}},
				}},
				"https://stop.example":  fmt.Errorf("loading https://stop.example: %w", context.Canceled),
				"https://other.example": errors.New("boom"),
			},
		}
		app, stdout, stderr := newTestApplication(t, stub, 2)

		err := app.Run(ctx, []string{
			"https://slow.example",
			"https://gone.example",
			"https://ok.example",
			"https://stop.example",
			"https://other.example",
		})

		assert.ErrorIs(t, err, ErrLoadFailed)
		assert.Equal(t, "==> https://ok.example\nfine\n\n", stdout.String())
		assert.Equal(t, strings.Join([]string{
			"Loading https://slow.example took longer than 30s",
			"Could not load https://gone.example",
			"  http: not found (404)",
			"Loading https://stop.example was canceled",
			"Error: boom",
		}, "\n")+"\n", stderr.String())
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		stub := &stubLoader{results: map[string]string{}}
		app, _, _ := newTestApplication(t, stub, 2)

		urls := make([]string, 8)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://%d.example", i)
		}
		require.NoError(t, app.Run(ctx, urls))

		assert.Len(t, stub.loaded, 8)
		assert.LessOrEqual(t, stub.peak.Load(), int32(2))
	})

	t.Run("no urls", func(t *testing.T) {
		app, _, stderr := newTestApplication(t, &stubLoader{}, 1)

		err := app.Run(ctx, nil)

		assert.ErrorIs(t, err, ErrNoURLs)
		assert.Equal(t, "No URLs found in the input\n", stderr.String())
	})
}

func TestApplication_Start(t *testing.T) {
	stub := &stubLoader{results: map[string]string{"https://example.com/a": "text"}}
	app, stdout, _ := newTestApplication(t, stub, 1)
	app.SetIO(strings.NewReader("look at https://example.com/a, and again https://example.com/a."), app.stdout, app.stderr)

	require.NoError(t, app.Start(context.Background()))

	assert.Equal(t, []string{"https://example.com/a"}, stub.loaded)
	assert.Equal(t, "==> https://example.com/a\ntext\n\n", stdout.String())
}

package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muratoffalex/linkreader/internal/content"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLoader(timeout time.Duration, strategies ...Strategy) *Loader {
	log := logger.NewTestLogger()
	normalizer := content.NewNormalizer(log)
	return New(
		NewChain(log, normalizer.Normalize, strategies...),
		WithTimeout(timeout),
		WithLogger(log),
	)
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("alias host is normalized before retrieval", func(t *testing.T) {
		tweet := newNamedMock(t, "tweet")
		tweet.EXPECT().Load(mock.Anything, "https://api.fxtwitter.com/jack/status/20?lang=en#top").
			Return("Just setting up my twttr ![pic](data:image/png;base64,iVBORw0KGgo=)", nil).Once()
		later := newNamedMock(t, "later")

		text, err := newTestLoader(time.Second, tweet, later).Load(ctx, "https://x.com/jack/status/20?lang=en#top")

		require.NoError(t, err)
		assert.Equal(t, "Just setting up my twttr", text)
		later.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("invalid urls fail without running strategies", func(t *testing.T) {
		untouched := newNamedMock(t, "untouched")
		l := newTestLoader(time.Second, untouched)

		for _, raw := range []string{"", "   ", "not a url", "ftp://example.com/file", "mailto:someone@example.com", "https://"} {
			_, err := l.Load(ctx, raw)

			var aggregate *AggregateError
			require.ErrorAs(t, err, &aggregate, raw)
			require.Len(t, aggregate.Failures, 1)
			assert.Equal(t, "validate", aggregate.Failures[0].Strategy)
			assert.ErrorIs(t, err, ErrLoadFailed)
		}
		untouched.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("exhausted chain returns aggregate error", func(t *testing.T) {
		first := newNamedMock(t, "first")
		first.EXPECT().Load(mock.Anything, testURL).Return("", errors.New("refused")).Once()
		second := newNamedMock(t, "second")
		second.EXPECT().Load(mock.Anything, testURL).Return("   ", nil).Once()

		_, err := newTestLoader(time.Second, first, second).Load(ctx, testURL)

		var aggregate *AggregateError
		require.ErrorAs(t, err, &aggregate)
		assert.Len(t, aggregate.Failures, 2)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("deadline wins over a strategy that ignores cancellation", func(t *testing.T) {
		stubborn := newNamedMock(t, "stubborn")
		stubborn.EXPECT().Load(mock.Anything, testURL).RunAndReturn(func(context.Context, string) (string, error) {
			time.Sleep(300 * time.Millisecond)
			return "too late", nil
		}).Once()
		instant := newNamedMock(t, "instant")

		started := time.Now()
		text, err := newTestLoader(50*time.Millisecond, stubborn, instant).Load(ctx, testURL)
		elapsed := time.Since(started)

		assert.Empty(t, text)
		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, testURL, timeoutErr.URL)
		assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, ErrLoadFailed)
		assert.Less(t, elapsed, 250*time.Millisecond)

		// the chain finishes in the background and must not reach the next strategy
		time.Sleep(350 * time.Millisecond)
		instant.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("strategies that honor the deadline still report a timeout", func(t *testing.T) {
		cooperative := newNamedMock(t, "cooperative")
		cooperative.EXPECT().Load(mock.Anything, testURL).RunAndReturn(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}).Once()

		_, err := newTestLoader(30*time.Millisecond, cooperative).Load(ctx, testURL)

		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		parent, cancel := context.WithCancel(ctx)
		blocking := newNamedMock(t, "blocking")
		blocking.EXPECT().Load(mock.Anything, testURL).RunAndReturn(func(ctx context.Context, _ string) (string, error) {
			cancel()
			<-ctx.Done()
			return "", ctx.Err()
		}).Once()

		_, err := newTestLoader(time.Second, blocking).Load(parent, testURL)

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("strategies receive a context with the deadline", func(t *testing.T) {
		inspecting := newNamedMock(t, "inspecting")
		inspecting.EXPECT().Load(mock.Anything, testURL).RunAndReturn(func(ctx context.Context, _ string) (string, error) {
			deadline, ok := ctx.Deadline()
			if !ok || time.Until(deadline) > time.Second {
				return "", errors.New("no deadline")
			}
			return "ok", nil
		}).Once()

		text, err := newTestLoader(time.Second, inspecting).Load(ctx, testURL)

		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	})
}

func TestLoader_Options(t *testing.T) {
	chain := NewChain(logger.NewTestLogger(), nil)

	assert.Equal(t, DefaultTimeout, New(chain).Timeout())
	assert.Equal(t, DefaultTimeout, New(chain, WithTimeout(0)).Timeout())
	assert.Equal(t, DefaultTimeout, New(chain, WithTimeout(-time.Second)).Timeout())
	assert.Equal(t, 5*time.Second, New(chain, WithTimeout(5*time.Second)).Timeout())

	aliases, err := NewAliasTable(map[string][]string{"canonical.test": {"alias.test"}})
	require.NoError(t, err)
	l := New(chain, WithAliases(aliases))
	assert.Equal(t, "https://canonical.test/a", l.Normalize("https://alias.test/a"))
	assert.Equal(t, "https://x.com/a", l.Normalize("https://x.com/a"))
}

func TestLoader_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/post" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html><html><head><title>t</title><script>track()</script></head>
<body><h1>Hello</h1><p>Read <a href="/more">more</a></p><img src="data:image/png;base64,AAAA"></body></html>`))
	}))
	defer server.Close()

	// localhost stands in for an alias host of the test server
	aliases, err := NewAliasTable(map[string][]string{"127.0.0.1": {"localhost"}})
	require.NoError(t, err)
	aliasURL := strings.Replace(server.URL, "127.0.0.1", "localhost", 1) + "/post"

	log := logger.NewTestLogger()
	recorder := newNamedMock(t, "recorder")
	recorder.EXPECT().Load(mock.Anything, server.URL+"/post").Return("", ErrInapplicable).Once()

	normalizer := content.NewNormalizer(log)
	chain := NewChain(log, normalizer.Normalize,
		recorder,
		NewHTTPStrategy(log, server.Client(), HTTPStrategyConfig{}),
	)
	l := New(chain, WithAliases(aliases), WithLogger(log), WithTimeout(5*time.Second))

	t.Run("page converted to markdown", func(t *testing.T) {
		text, err := l.Load(context.Background(), aliasURL)

		require.NoError(t, err)
		assert.Contains(t, text, "# Hello")
		assert.Contains(t, text, "Read more")
		assert.NotContains(t, text, "base64")
		assert.NotContains(t, text, "track()")
		assert.NotContains(t, text, "/more")
	})

	t.Run("unreachable page", func(t *testing.T) {
		unreachable := New(
			NewChain(log, normalizer.Normalize, NewHTTPStrategy(log, server.Client(), HTTPStrategyConfig{})),
			WithLogger(log),
		)

		_, err := unreachable.Load(context.Background(), server.URL+"/missing")

		var aggregate *AggregateError
		require.ErrorAs(t, err, &aggregate)
		require.Len(t, aggregate.Failures, 1)
		assert.Equal(t, StrategyNameHTTP, aggregate.Failures[0].Strategy)
		assert.Contains(t, aggregate.Failures[0].Err.Error(), "404")
	})
}

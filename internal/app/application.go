package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muratoffalex/linkreader/internal/app/di"
	"github.com/muratoffalex/linkreader/internal/config"
	"github.com/muratoffalex/linkreader/internal/loader"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/utils"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoURLs     = errors.New("no URLs to load")
	ErrLoadFailed = errors.New("some URLs could not be loaded")
)

const resultHeader = "==> "

var interfaceLanguage string

func init() {
	flag.StringVar(&interfaceLanguage, "lang", "", "Interface language of failure messages")
}

// Localizer renders the failure messages written to stderr.
type Localizer interface {
	Localize(messageID string, data map[string]any) string
}

type Application struct {
	Logger logger.Logger
	di     *di.Container
	args   []string

	loader      loader.ContentLoader
	localizer   Localizer
	concurrency int
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
}

func New() (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if interfaceLanguage != "" {
		cfg.SetInterfaceLanguage(interfaceLanguage)
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	container.Logger.Debug("DI Container created")

	app := NewWithLoader(container.Loader, container.Localizer, cfg.Loader().Concurrency, container.Logger)
	app.di = container
	app.args = flag.Args()
	return app, nil
}

// NewWithLoader builds an application around an existing loader, reading
// from stdin and writing to stdout and stderr.
func NewWithLoader(l loader.ContentLoader, localizer Localizer, concurrency int, log logger.Logger) *Application {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Application{
		Logger:      log,
		loader:      l,
		localizer:   localizer,
		concurrency: concurrency,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
}

// SetIO replaces the standard streams.
func (a *Application) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	a.stdin = stdin
	a.stdout = stdout
	a.stderr = stderr
}

// Start loads the URLs given as arguments, or the URLs found in stdin when
// there are none.
func (a *Application) Start(ctx context.Context) error {
	urls := a.args
	if len(urls) == 0 {
		input, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		urls = utils.ExtractStrictURLs(string(input))
	}
	return a.Run(ctx, urls)
}

type result struct {
	content string
	err     error
}

// Run loads urls concurrently and prints the results in input order.
// It returns ErrLoadFailed when at least one URL failed.
func (a *Application) Run(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		fmt.Fprintln(a.stderr, a.localizer.Localize("load.noURLs", nil))
		return ErrNoURLs
	}

	results := make([]result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, url := range urls {
		g.Go(func() error {
			content, err := a.loader.Load(gctx, strings.TrimSpace(url))
			results[i] = result{content: content, err: err}
			return nil
		})
	}
	// loads never fail the group, errors are kept per URL
	_ = g.Wait()

	failed := 0
	for i, url := range urls {
		res := results[i]
		if res.err != nil {
			failed++
			a.Logger.WithError(res.err).WithField("url", url).Debug("Load failed")
			fmt.Fprintln(a.stderr, a.failureMessage(url, res.err))
			continue
		}
		fmt.Fprintf(a.stdout, "%s%s\n%s\n\n", resultHeader, url, res.content)
	}

	a.Logger.WithFields(logger.Fields{
		"total":  len(urls),
		"failed": failed,
	}).Info("Loading finished")

	if failed > 0 {
		return ErrLoadFailed
	}
	return nil
}

func (a *Application) failureMessage(url string, err error) string {
	var (
		timeoutErr   *loader.TimeoutError
		aggregateErr *loader.AggregateError
	)
	switch {
	case errors.As(err, &timeoutErr):
		return a.localizer.Localize("load.timeout", map[string]any{
			"URL":     url,
			"Timeout": timeoutErr.Timeout.String(),
		})
	case errors.Is(err, context.Canceled):
		return a.localizer.Localize("load.canceled", map[string]any{"URL": url})
	case errors.As(err, &aggregateErr):
		lines := []string{a.localizer.Localize("load.failed", map[string]any{"URL": url})}
		for _, f := range aggregateErr.Failures {
			cause := f.Err
			var retrievalErr *loader.RetrievalError
			if errors.As(cause, &retrievalErr) {
				cause = retrievalErr.Err
			}
			lines = append(lines, "  "+a.localizer.Localize("load.attempt", map[string]any{
				"Strategy": f.Strategy,
				"Error":    cause.Error(),
			}))
		}
		return strings.Join(lines, "\n")
	}
	return a.localizer.Localize("error", nil) + ": " + err.Error()
}

func (a *Application) Close() error {
	if a.di != nil {
		return a.di.Close()
	}
	return nil
}

package loader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/muratoffalex/linkreader/internal/logger"
)

var ErrBrowserNotFound = errors.New("chrome executable not found")

type BrowserStrategyConfig struct {
	ExecPath string
	// Flags are command line switches such as "--headless" or "--lang=en".
	Flags []string
	Proxy string
}

// BrowserStrategy renders the page in headless Chrome and returns the DOM
// after the body is ready. The browser is started per call and killed when
// ctx ends.
type BrowserStrategy struct {
	BaseStrategy
	config BrowserStrategyConfig
}

func NewBrowserStrategy(l logger.Logger, cfg BrowserStrategyConfig) *BrowserStrategy {
	return &BrowserStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameBrowser, "", l),
		config:       cfg,
	}
}

func (s *BrowserStrategy) Load(ctx context.Context, url string) (string, error) {
	execPath, err := s.resolveExecPath()
	if err != nil {
		return "", s.fail(url, err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.UserAgent(RandomUserAgent()),
	)
	opts = append(opts, parseChromeFlags(s.config.Flags)...)
	if s.config.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(s.config.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelBrowser()

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", s.failf(url, "browser render failed: %w", err)
	}

	return html, nil
}

func (s *BrowserStrategy) resolveExecPath() (string, error) {
	candidates := []string{s.config.ExecPath, "chromium", "chromium-browser", "google-chrome", "chrome"}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBrowserNotFound, s.config.ExecPath)
}

// parseChromeFlags turns "--name" and "--name=value" switches into allocator
// options.
func parseChromeFlags(flags []string) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(flags))
	for _, flag := range flags {
		flag = strings.TrimLeft(strings.TrimSpace(flag), "-")
		if flag == "" {
			continue
		}
		if name, value, ok := strings.Cut(flag, "="); ok {
			opts = append(opts, chromedp.Flag(name, value))
			continue
		}
		opts = append(opts, chromedp.Flag(flag, true))
	}
	return opts
}

package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/muratoffalex/linkreader/internal/logger"
)

const (
	StrategyNameYoutube  = "youtube"
	StrategyNameReel     = "reel"
	StrategyNameYtdlp    = "ytdlp"
	StrategyNamePDF      = "pdf"
	StrategyNameScraper  = "scraper"
	StrategyNameHTTP     = "http"
	StrategyNameBrowser  = "browser"
	StrategyNameSnapshot = "snapshot"
)

// Strategy retrieves the textual content of a URL in one particular way.
// Load returns raw text; an error means this strategy could not produce
// anything and the next one should be tried.
type Strategy interface {
	Name() string
	Load(ctx context.Context, url string) (string, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BaseStrategy carries what every concrete strategy shares.
type BaseStrategy struct {
	name    string
	pattern *regexp.Regexp
	logger  logger.Logger
}

// NewBaseStrategy compiles pattern at startup; an empty pattern applies to
// every URL.
func NewBaseStrategy(name string, pattern string, l logger.Logger) BaseStrategy {
	l = l.WithField("strategy", name)
	var compiled *regexp.Regexp
	if pattern != "" {
		var err error
		compiled, err = regexp.Compile(pattern)
		if err != nil {
			l.WithField("pattern", pattern).Error("Pattern is invalid")
		}
	}
	return BaseStrategy{
		name:    name,
		pattern: compiled,
		logger:  l,
	}
}

func (s BaseStrategy) Name() string {
	return s.name
}

func (s BaseStrategy) CanHandle(url string) bool {
	return s.pattern == nil || s.pattern.MatchString(url)
}

func (s BaseStrategy) fail(url string, err error) error {
	return &RetrievalError{Strategy: s.name, URL: url, Err: err}
}

func (s BaseStrategy) failf(url string, format string, args ...any) error {
	return s.fail(url, fmt.Errorf(format, args...))
}

func (s BaseStrategy) inapplicable(url string) error {
	return s.fail(url, ErrInapplicable)
}

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrCannotBeEmpty
	}
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: unsupported URL scheme: %q", ErrInvalidURL, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}
	return nil
}

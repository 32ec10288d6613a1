package loader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/muratoffalex/linkreader/internal/content"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/network"
)

var ErrChallengePage = errors.New("anti-bot challenge page")

// markers of interstitial pages served instead of the content
var challengeMarkers = []string{
	"<title>just a moment...</title>",
	"cf-browser-verification",
	"/cdn-cgi/challenge-platform/",
	"attention required! | cloudflare",
	"ddos-guard",
	"please enable javascript and cookies to continue",
}

// ScraperStrategy loads pages the way a browser would: browser headers,
// random user agent, referer and the cookies from the configured cookies
// file. Challenge pages are reported as failures.
type ScraperStrategy struct {
	BaseStrategy
	client      *http.Client
	jar         http.CookieJar
	jarErr      error
	decoder     content.Decoder
	maxBodySize int64
}

type ScraperStrategyConfig struct {
	CookiesFile     string
	MaxBodySize     int64
	FallbackCharset string
}

func NewScraperStrategy(l logger.Logger, client *http.Client, cfg ScraperStrategyConfig) *ScraperStrategy {
	s := &ScraperStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameScraper, "", l),
		client:       client,
		decoder:      content.NewDecoder(cfg.FallbackCharset),
		maxBodySize:  cfg.MaxBodySize,
	}
	s.jar, s.jarErr = network.NewCookieJar(cfg.CookiesFile)
	if s.jarErr != nil {
		s.logger.WithError(s.jarErr).Warn("Cookies file unavailable, scraper disabled")
	}
	return s
}

func (s *ScraperStrategy) Load(ctx context.Context, url string) (string, error) {
	if s.jarErr != nil {
		return "", s.fail(url, s.jarErr)
	}

	maxBodySize := s.maxBodySize
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.MaxBodySize(int(maxBodySize)),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	// per call copy so the jar never leaks into the shared client
	client := *s.client
	client.Jar = s.jar
	c.SetClient(&client)
	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range BrowserHeaders {
			r.Headers.Set(k, v)
		}
	})

	var (
		body        []byte
		contentType string
		visitErr    error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		contentType = r.Headers.Get("Content-Type")
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			if statusErr := statusError(r.StatusCode, url); statusErr != nil {
				visitErr = statusErr
				return
			}
		}
		visitErr = err
	})

	if err := c.Visit(url); err != nil && visitErr == nil {
		visitErr = err
	}
	if visitErr != nil {
		return "", s.fail(url, visitErr)
	}

	if !isTextual(contentType) || bytes.HasPrefix(body, pdfMagic) {
		return "", s.inapplicable(url)
	}

	// colly already transcodes bodies with a declared charset
	if strings.Contains(strings.ToLower(contentType), "charset") {
		contentType = "text/html; charset=utf-8"
	}
	text := s.decoder.Decode(body, contentType)
	if isChallengePage(text) {
		return "", s.fail(url, ErrChallengePage)
	}

	return text, nil
}

func isChallengePage(text string) bool {
	head := text
	if len(head) > 64<<10 {
		head = head[:64<<10]
	}
	head = strings.ToLower(head)
	for _, marker := range challengeMarkers {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

package loader

import (
	"bytes"
	"context"
	"fmt"
	stdhtml "html"
	"mime"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/muratoffalex/linkreader/internal/content"
	"github.com/muratoffalex/linkreader/internal/logger"
)

// HTTPStrategy fetches the URL directly and returns the decoded document.
// With readability enabled HTML pages are reduced to their main article.
type HTTPStrategy struct {
	BaseStrategy
	client      HTTPClient
	decoder     content.Decoder
	maxBodySize int64
	readability bool
}

type HTTPStrategyConfig struct {
	MaxBodySize     int64
	FallbackCharset string
	Readability     bool
}

func NewHTTPStrategy(l logger.Logger, client HTTPClient, cfg HTTPStrategyConfig) *HTTPStrategy {
	return &HTTPStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameHTTP, "", l),
		client:       client,
		decoder:      content.NewDecoder(cfg.FallbackCharset),
		maxBodySize:  cfg.MaxBodySize,
		readability:  cfg.Readability,
	}
}

func (s *HTTPStrategy) Load(ctx context.Context, url string) (string, error) {
	resp, err := get(ctx, s.client, url, map[string]string{
		"Accept-Language": BrowserHeaders["Accept-Language"],
	})
	if err != nil {
		return "", s.fail(url, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		s.logger.WithField("content_type", contentType).Debug("Skipping non-text response")
		return "", s.inapplicable(url)
	}

	body, err := readBody(resp.Body, s.maxBodySize)
	if err != nil {
		return "", s.fail(url, err)
	}
	if bytes.HasPrefix(body, pdfMagic) {
		return "", s.inapplicable(url)
	}

	text := s.decoder.Decode(body, contentType)
	if s.readability && (content.IsHTMLContentType(contentType) || content.IsHTML(text)) {
		if article, ok := s.extractArticle(text, pageURL(resp, url)); ok {
			return article, nil
		}
	}

	return text, nil
}

// isTextual accepts text, markup and JSON. A missing Content-Type is
// treated as text and sniffed later.
func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"):
		return true
	case strings.HasSuffix(mediaType, "+xml"), strings.HasSuffix(mediaType, "+json"):
		return true
	case mediaType == "application/xml", mediaType == "application/json", mediaType == "application/javascript":
		return true
	}
	return false
}

func (s *HTTPStrategy) extractArticle(html string, pageURL *neturl.URL) (string, bool) {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		s.logger.WithError(err).Debug("Readability failed, using full page")
		return "", false
	}
	if strings.TrimSpace(article.Content) == "" {
		return "", false
	}
	return fmt.Sprintf("<html><body><h1>%s</h1>%s</body></html>", stdhtml.EscapeString(article.Title), article.Content), true
}

func pageURL(resp *http.Response, rawURL string) *neturl.URL {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL
	}
	parsed, _ := neturl.Parse(rawURL)
	return parsed
}

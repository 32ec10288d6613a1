package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
)

const DefaultMaxBodySize int64 = 20 << 20

var ErrBodyTooLarge = errors.New("response body too large")

var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:138.0) Gecko/20100101 Firefox/138.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
}

func RandomUserAgent() string {
	return UserAgents[rand.IntN(len(UserAgents))]
}

// BrowserHeaders are sent by the scraping strategies. over18 passes the age
// gate of forums such as PTT.
var BrowserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "zh-TW,zh;q=0.9,ja;q=0.8,en-US;q=0.7,en;q=0.6",
	"Cookie":          "over18=1",
}

// get performs a GET bound to ctx and maps error statuses to errors. The
// caller closes the body of a successful response.
func get(ctx context.Context, client HTTPClient, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", RandomUserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("connection reset by peer (EOF) - possible server issue with %s", url)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if err := statusError(resp.StatusCode, url); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

func statusError(code int, url string) error {
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded (429) for %s", url)
	case http.StatusForbidden:
		return fmt.Errorf("access forbidden (403) for %s", url)
	case http.StatusNotFound:
		return fmt.Errorf("not found (404) for %s", url)
	case http.StatusInternalServerError:
		return fmt.Errorf("server error (500) for %s", url)
	case http.StatusBadGateway:
		return fmt.Errorf("bad gateway (502) for %s", url)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("service unavailable (503) for %s", url)
	case http.StatusGatewayTimeout:
		return fmt.Errorf("gateway timeout (504) for %s", url)
	}
	if code >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d for %s", code, url)
	}
	return nil
}

func readBody(body io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	data, err := io.ReadAll(io.LimitReader(body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body failed: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, maxSize)
	}
	return data, nil
}

package network

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

var ErrCookiesFileNotFound = errors.New("cookies file not found")

const httpOnlyPrefix = "#HttpOnly_"

// LoadNetscapeCookies parses a cookies.txt file as exported by browsers and
// yt-dlp: domain, include-subdomains flag, path, secure, expiry, name, value.
func LoadNetscapeCookies(path string) ([]*http.Cookie, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCookiesFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open cookies file: %w", err)
	}
	defer file.Close()

	cookies := make([]*http.Cookie, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if after, ok := strings.CutPrefix(line, httpOnlyPrefix); ok {
			line = after
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}

		cookie := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expires, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expires > 0 {
			cookie.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, cookie)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookies file: %w", err)
	}

	return cookies, nil
}

// NewCookieJar returns a jar seeded with the cookies from path. An empty path
// yields an empty jar.
func NewCookieJar(path string) (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if path == "" {
		return jar, nil
	}

	cookies, err := LoadNetscapeCookies(path)
	if err != nil {
		return nil, err
	}

	byHost := make(map[string][]*http.Cookie)
	for _, cookie := range cookies {
		host := strings.TrimPrefix(cookie.Domain, ".")
		byHost[host] = append(byHost[host], cookie)
	}
	for host, hostCookies := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, hostCookies)
	}

	return jar, nil
}

package utils

import (
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[a-zA-Z0-9\p{L}\p{N}\-._~:/?#\[\]@!$&'()*+,;=%]+[a-zA-Z0-9\p{L}\p{N}\-._~:/?#\[\]@!$&'()*+,;=%]`)

// ExtractStrictURLs returns the http(s) URLs in text in order of appearance,
// without duplicates. Sentence punctuation and unbalanced closing
// parentheses after a URL are not part of it.
func ExtractStrictURLs(text string) []string {
	matches := urlRegex.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		match = trimTrailing(match)
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		urls = append(urls, match)
	}
	return urls
}

func trimTrailing(url string) string {
	for {
		trimmed := strings.TrimRight(url, ".,;:!?'")
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if trimmed == url {
			return url
		}
		url = trimmed
	}
}

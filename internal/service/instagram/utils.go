package instagram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	URLPattern = `https?://(?:www\.)?instagram\.com(?:/[A-Za-z0-9_.-]+)?(?:/p|/reel|/reels|/tv)/[A-Za-z0-9_-]+`

	postURLPattern = `instagram\.com(?:/[A-Za-z0-9_.-]+)?(?:/p|/reel|/reels|/tv)/([A-Za-z0-9_-]+)`

	shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

var postRegex = regexp.MustCompile(postURLPattern)

// ExtractMediaID converts the shortcode of a post or reel URL to the numeric
// media id. It returns an empty string for anything else.
func ExtractMediaID(url string) string {
	matches := postRegex.FindStringSubmatch(url)
	if len(matches) < 2 {
		return ""
	}
	shortcode := matches[1]

	if _, err := strconv.ParseInt(shortcode, 10, 64); err == nil {
		return shortcode
	}

	mediaID := int64(0)
	for _, c := range shortcode {
		idx := strings.IndexRune(shortcodeAlphabet, c)
		if idx < 0 {
			return ""
		}
		mediaID = mediaID*64 + int64(idx)
	}

	return fmt.Sprintf("%d", mediaID)
}

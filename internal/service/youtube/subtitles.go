package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/linkreader/internal/logger"
)

var (
	ErrNoVideoLanguage = errors.New("video language not available")
	ErrGetSubtitleURL  = errors.New("failed to get subtitle URL")
	ErrFetchTranscript = errors.New("failed to fetch transcript")
)

type SubtitleFetcher struct {
	httpClient HTTPClient
	logger     logger.Logger
	languages  []string
}

func NewSubtitleFetcher(httpClient HTTPClient, logger logger.Logger, languages []string) *SubtitleFetcher {
	return &SubtitleFetcher{
		httpClient: httpClient,
		logger:     logger,
		languages:  languages,
	}
}

func (sf *SubtitleFetcher) Fetch(ctx context.Context, info *ytdlp.ExtractedInfo) (string, error) {
	candidates := sf.candidateLanguages(info)
	if len(candidates) == 0 {
		return "", ErrNoVideoLanguage
	}

	var errs []error
	for _, lang := range candidates {
		subtitleURL, err := sf.getSubtitleURL(info, lang)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		content, err := sf.fetchSubtitles(ctx, subtitleURL)
		if err != nil {
			return "", errors.Join(ErrFetchTranscript, err)
		}
		return content, nil
	}

	return "", errors.Join(append([]error{ErrGetSubtitleURL}, errs...)...)
}

// candidateLanguages lists preferred languages first, then the video language.
func (sf *SubtitleFetcher) candidateLanguages(info *ytdlp.ExtractedInfo) []string {
	result := make([]string, 0, len(sf.languages)+1)
	seen := make(map[string]struct{})
	add := func(lang string) {
		if lang == "" {
			return
		}
		if _, ok := seen[lang]; ok {
			return
		}
		seen[lang] = struct{}{}
		result = append(result, lang)
	}
	for _, lang := range sf.languages {
		add(lang)
	}
	if info.ExtractedFormat != nil && info.Language != nil {
		add(*info.Language)
	}
	return result
}

func (sf *SubtitleFetcher) fetchSubtitles(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := sf.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	// SRT to plain text
	lines := strings.Split(string(body), "\n")
	var textLines []string
	for _, line := range lines {
		if _, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if strings.TrimSpace(line) != "" {
			textLines = append(textLines, strings.TrimSpace(line))
		}
	}

	return strings.Join(textLines, " "), nil
}

func (sf *SubtitleFetcher) getSubtitleURL(info *ytdlp.ExtractedInfo, language string) (string, error) {
	if info.AutomaticCaptions == nil {
		return "", errors.New("no captions available for this video")
	}

	baseLanguage := strings.Split(language, "-")[0]

	languageCaptions, exists := info.AutomaticCaptions[language]
	if !exists {
		// en-US -> en
		languageCaptions, exists = info.AutomaticCaptions[baseLanguage]
	}

	if !exists {
		return "", fmt.Errorf("no captions available for language: %s", language)
	}

	sf.logger.WithFields(logger.Fields{
		"language":           language,
		"available_captions": len(languageCaptions),
	}).Debug("Available captions")

	for _, caption := range languageCaptions {
		if caption.URL != "" && strings.Contains(strings.ToLower(caption.URL), "fmt=srt") {
			return caption.URL, nil
		}
	}

	return "", errors.New("no subtitle URL found")
}

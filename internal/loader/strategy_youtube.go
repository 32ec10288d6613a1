package loader

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/network"
	"github.com/muratoffalex/linkreader/internal/service/youtube"
)

const youtubePattern = `(?i)^https?://(?:[a-z0-9-]+\.)*(?:youtube\.com|youtu\.be)(?:[:/?#]|$)`

type youtubeService interface {
	FetchYoutubeData(ctx context.Context, url string, flags youtube.FetchFlag) (*youtube.YoutubeData, error)
}

// YoutubeStrategy returns title, metadata, description and transcript of a
// video. Videos without captions fail.
type YoutubeStrategy struct {
	BaseStrategy
	service youtubeService
}

func NewYoutubeStrategy(l logger.Logger, service youtubeService) *YoutubeStrategy {
	return &YoutubeStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameYoutube, youtubePattern, l),
		service:      service,
	}
}

func (s *YoutubeStrategy) Load(ctx context.Context, url string) (string, error) {
	if !s.CanHandle(url) {
		return "", s.inapplicable(url)
	}

	data, err := s.service.FetchYoutubeData(ctx, url, youtube.FetchTranscript|youtube.FetchDescription)
	if err != nil {
		return "", s.fail(url, err)
	}

	return data.Format(), nil
}

// YtdlpStrategy covers every other site yt-dlp knows. Sites it does not
// support are inapplicable.
type YtdlpStrategy struct {
	BaseStrategy
	service     youtubeService
	cookiesFile string
}

func NewYtdlpStrategy(l logger.Logger, service youtubeService, cookiesFile string) *YtdlpStrategy {
	return &YtdlpStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameYtdlp, "", l),
		service:      service,
		cookiesFile:  cookiesFile,
	}
}

func (s *YtdlpStrategy) Load(ctx context.Context, url string) (string, error) {
	if s.cookiesFile != "" {
		if _, err := os.Stat(s.cookiesFile); err != nil {
			return "", s.fail(url, fmt.Errorf("%w: %s", network.ErrCookiesFileNotFound, s.cookiesFile))
		}
	}

	data, err := s.service.FetchYoutubeData(ctx, url, youtube.FetchOptionalTranscript|youtube.FetchDescription)
	if err != nil {
		if errors.Is(err, youtube.ErrUnsupportedURL) {
			return "", s.inapplicable(url)
		}
		return "", s.fail(url, err)
	}

	return data.Format(), nil
}

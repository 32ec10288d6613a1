package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/muratoffalex/linkreader/internal/logger"
)

type FetchFlag uint16

const (
	// FetchTranscript makes a missing transcript an error.
	FetchTranscript FetchFlag = 1 << iota
	// FetchOptionalTranscript loads the transcript when one exists.
	FetchOptionalTranscript
	FetchDescription
)

var (
	ErrExtractYoutubeData = errors.New("failed to extract youtube data")
	ErrExtractVideoInfo   = errors.New("failed to extract video info")
	ErrNoVideoInfo        = errors.New("no video info available")
	ErrUnsupportedURL     = errors.New("unsupported URL")
)

type ContentExtractor interface {
	Extract(ctx context.Context, url string, options FetchOptions) (*ytdlp.Result, error)
}

type Config struct {
	Proxy       string
	CookiesFile string
	// Languages are tried in order before the video's own language.
	Languages   []string
	AutoInstall bool
}

type Service struct {
	config           Config
	logger           logger.Logger
	contentExtractor ContentExtractor
	subtitleFetcher  *SubtitleFetcher
}

func NewService(l logger.Logger, httpClient HTTPClient, config Config) *Service {
	return &Service{
		config:           config,
		logger:           l,
		contentExtractor: NewYtdlpContentExtractor(config.AutoInstall),
		subtitleFetcher:  NewSubtitleFetcher(httpClient, l, config.Languages),
	}
}

type YoutubeData struct {
	LikeCount    *float64
	CommentCount *float64
	ViewCount    *float64
	UploadedAt   *time.Time
	Title        string
	Description  string
	Transcript   string
}

func (f *Service) FetchYoutubeData(ctx context.Context, url string, flags FetchFlag) (*YoutubeData, error) {
	output, err := f.contentExtractor.Extract(ctx, url, FetchOptions{
		SkipDownload: true,
		PrintJSON:    true,
		Proxy:        f.config.Proxy,
		CookiesFile:  f.config.CookiesFile,
	})
	if err != nil {
		if isUnsupportedURL(output, err) {
			return nil, errors.Join(ErrUnsupportedURL, err)
		}
		return nil, errors.Join(ErrExtractYoutubeData, err)
	}

	info, err := output.GetExtractedInfo()
	if err != nil {
		return nil, errors.Join(ErrExtractVideoInfo, err)
	}

	if len(info) == 0 || info[0] == nil {
		return nil, ErrNoVideoInfo
	}

	file := info[0]
	result := f.extractVideoInfo(file)

	if flags&FetchDescription != 0 && file.Description != nil {
		result.Description = *file.Description
	}

	if flags&(FetchTranscript|FetchOptionalTranscript) != 0 {
		content, err := f.subtitleFetcher.Fetch(ctx, file)
		switch {
		case err == nil:
			result.Transcript = content
		case flags&FetchTranscript != 0:
			return nil, err
		default:
			f.logger.WithError(err).Debug("Transcript not available")
		}
	}

	return result, nil
}

func (f *Service) extractVideoInfo(info *ytdlp.ExtractedInfo) *YoutubeData {
	result := &YoutubeData{
		LikeCount:    info.LikeCount,
		CommentCount: info.CommentCount,
		ViewCount:    info.ViewCount,
	}

	if info.Title != nil {
		result.Title = *info.Title
	}
	if timestamp := info.Timestamp; timestamp != nil {
		val := time.Unix(int64(*timestamp), 0)
		result.UploadedAt = &val
	}

	return result
}

func isUnsupportedURL(result *ytdlp.Result, err error) bool {
	if strings.Contains(err.Error(), "Unsupported URL") {
		return true
	}
	return result != nil && strings.Contains(result.Stderr, "Unsupported URL")
}

// Format renders the metadata header followed by description and transcript.
func (d *YoutubeData) Format() string {
	metadataItems := []string{}
	if val := d.UploadedAt; val != nil {
		metadataItems = append(metadataItems, "Uploaded at: "+val.Format(time.DateTime))
	}
	if val := d.ViewCount; val != nil {
		metadataItems = append(metadataItems, "Views: "+FormatCount(*val))
	}
	if val := d.LikeCount; val != nil {
		metadataItems = append(metadataItems, "Likes: "+FormatCount(*val))
	}
	if val := d.CommentCount; val != nil {
		metadataItems = append(metadataItems, "Comments count: "+FormatCount(*val))
	}

	var sb strings.Builder
	if d.Title != "" {
		sb.WriteString("Title: " + d.Title + "\n")
	}
	if len(metadataItems) > 0 {
		sb.WriteString(strings.Join(metadataItems, " | ") + "\n")
	}
	if description := strings.TrimSpace(d.Description); description != "" {
		sb.WriteString("\n" + description + "\n")
	}
	if transcript := strings.TrimSpace(d.Transcript); transcript != "" {
		sb.WriteString("\n" + transcript + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func FormatCount(count float64) string {
	switch {
	case count < 1000:
		return fmt.Sprintf("%.0f", count)
	case count < 10000:
		return fmt.Sprintf("%.1fK", count/1000)
	case count < 1000000:
		return fmt.Sprintf("%.0fK", count/1000)
	case count < 10000000:
		return fmt.Sprintf("%.1fM", count/1000000)
	default:
		return fmt.Sprintf("%.0fM", count/1000000)
	}
}

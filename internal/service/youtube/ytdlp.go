package youtube

import (
	"context"
	"fmt"

	"github.com/lrstanley/go-ytdlp"
)

type FetchOptions struct {
	SkipDownload bool
	PrintJSON    bool
	Proxy        string
	CookiesFile  string
}

type installFunc func(ctx context.Context, opts *ytdlp.InstallOptions) (*ytdlp.ResolvedInstall, error)

type YtdlpContentExtractor struct {
	autoInstall bool
	installer   installFunc
}

// NewYtdlpContentExtractor returns an extractor that runs the yt-dlp binary.
// With autoInstall the binary is resolved, and downloaded if missing, before
// every run. go-ytdlp caches a successful resolve, so only failures repeat.
func NewYtdlpContentExtractor(autoInstall bool) *YtdlpContentExtractor {
	return &YtdlpContentExtractor{autoInstall: autoInstall, installer: ytdlp.Install}
}

func (f *YtdlpContentExtractor) install(ctx context.Context) error {
	if _, err := f.installer(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func (f *YtdlpContentExtractor) Extract(
	ctx context.Context,
	url string,
	options FetchOptions,
) (*ytdlp.Result, error) {
	if f.autoInstall {
		if err := f.install(ctx); err != nil {
			return nil, err
		}
	}

	dl := ytdlp.New()

	if options.SkipDownload {
		dl = dl.SkipDownload()
	}

	if options.PrintJSON {
		dl = dl.PrintJSON()
	}

	if options.Proxy != "" {
		dl = dl.Proxy(options.Proxy)
	}

	if options.CookiesFile != "" {
		dl = dl.Cookies(options.CookiesFile)
	}

	return dl.Run(ctx, url)
}

package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/muratoffalex/linkreader/internal/cache"
	"github.com/muratoffalex/linkreader/internal/config"
	"github.com/muratoffalex/linkreader/internal/content"
	"github.com/muratoffalex/linkreader/internal/database"
	"github.com/muratoffalex/linkreader/internal/loader"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/network"
	"github.com/muratoffalex/linkreader/internal/service"
	"github.com/muratoffalex/linkreader/internal/service/instagram"
	"github.com/muratoffalex/linkreader/internal/service/youtube"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

const purgeTimeout = 10 * time.Second

type Container struct {
	Cfg              *config.Config
	Logger           logger.Logger
	DB               database.Database
	Cache            cache.Cache
	Localizer        *service.Localizer
	HttpClient       *http.Client
	YtService        *youtube.Service
	InstagramService *instagram.Service
	Aliases          *loader.AliasTable
	Chain            *loader.Chain
	Loader           loader.ContentLoader
}

func NewContainer(cfg *config.Config) (*Container, error) {
	logCfg := cfg.Log()
	l := logger.NewLogrusLogger(&logCfg)

	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		return nil, fmt.Errorf("error create localizer: %w", err)
	}

	container := &Container{
		Cfg:       cfg,
		Logger:    l,
		Localizer: localizer,
	}

	httpCfg := network.NewDefaultHTTPClientConfig(cfg.HTTP())
	container.HttpClient = network.SetupHTTPClient(httpCfg, l)

	loaderCfg := cfg.Loader()
	ytCfg := cfg.Youtube()
	container.YtService = youtube.NewService(l, container.HttpClient, youtube.Config{
		Proxy:       cfg.HTTP().GetProxy(),
		CookiesFile: existingFile(loaderCfg.CookiesFile),
		Languages:   ytCfg.Languages,
		AutoInstall: ytCfg.AutoInstall,
	})

	igCfg := cfg.Instagram()
	container.InstagramService = instagram.NewService(l, instagram.Config{
		Username:    igCfg.Username,
		Password:    igCfg.Password,
		SessionPath: igCfg.SessionPath,
		Proxy:       cfg.HTTP().GetProxy(),
	})

	if loaderCfg.AliasesFile != "" {
		container.Aliases, err = loader.LoadAliasFile(loaderCfg.AliasesFile)
		if err != nil {
			return nil, err
		}
	} else {
		container.Aliases = loader.MustDefaultAliasTable()
	}

	strategies, err := NewStrategies(cfg, l, container.YtService, container.InstagramService)
	if err != nil {
		return nil, err
	}

	normalizer := content.NewNormalizer(l)
	container.Chain = loader.NewChain(l, normalizer.Normalize, strategies...)
	l.WithField("strategies", container.Chain.Names()).Debug("Strategy chain configured")

	var contentLoader loader.ContentLoader = loader.New(container.Chain,
		loader.WithAliases(container.Aliases),
		loader.WithTimeout(loaderCfg.Timeout),
		loader.WithLogger(l),
	)

	if err := container.setupCache(); err != nil {
		return nil, err
	}
	if container.Cache != nil {
		contentLoader = loader.NewCachedLoader(contentLoader, container.Cache, container.Aliases, cfg.Cache().TTL, l)
	}
	container.Loader = contentLoader

	return container, nil
}

// setupCache uses memory only, or memory in front of sqlite when a DSN is set.
func (c *Container) setupCache() error {
	cacheCfg := c.Cfg.Cache()
	if !cacheCfg.Enabled {
		return nil
	}

	memoryCache := cache.NewMemoryCache()
	dsn := c.Cfg.GetDatabaseDSN()
	if dsn == "" {
		c.Cache = memoryCache
		return nil
	}

	db, err := database.NewSQLiteDB(dsn, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	c.DB = db

	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()
	if purged, err := db.PurgeExpiredCache(ctx); err != nil {
		c.Logger.WithError(err).Warn("Failed to purge expired cache")
	} else if purged > 0 {
		c.Logger.WithField("entries", purged).Debug("Expired cache purged")
	}

	c.Cache = cache.NewMultiLevelCache(memoryCache, cache.NewDBCache(db), cacheCfg.TTL, c.Logger)
	return nil
}

func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// NewStrategies builds the configured strategies in order. Each one gets its
// rate limit from strategies.<name>.rate_limit.
func NewStrategies(cfg *config.Config, l logger.Logger, yt *youtube.Service, ig *instagram.Service) ([]loader.Strategy, error) {
	loaderCfg := cfg.Loader()
	strategyHTTPCfg := network.NewHTTPClientConfigForStrategy(cfg.HTTP(), loaderCfg.Timeout)
	strategyClient := network.SetupHTTPClient(strategyHTTPCfg, l)

	strategies := make([]loader.Strategy, 0, len(loaderCfg.Strategies))
	for _, name := range loaderCfg.Strategies {
		var s loader.Strategy
		switch name {
		case loader.StrategyNameYoutube:
			s = loader.NewYoutubeStrategy(l, yt)
		case loader.StrategyNameReel:
			s = loader.NewReelStrategy(l, ig)
		case loader.StrategyNameYtdlp:
			s = loader.NewYtdlpStrategy(l, yt, loaderCfg.CookiesFile)
		case loader.StrategyNamePDF:
			s = loader.NewPDFStrategy(l, strategyClient, loaderCfg.MaxBodySize)
		case loader.StrategyNameScraper:
			s = loader.NewScraperStrategy(l, strategyClient, loader.ScraperStrategyConfig{
				CookiesFile:     loaderCfg.CookiesFile,
				MaxBodySize:     loaderCfg.MaxBodySize,
				FallbackCharset: loaderCfg.FallbackCharset,
			})
		case loader.StrategyNameHTTP:
			s = loader.NewHTTPStrategy(l, strategyClient, loader.HTTPStrategyConfig{
				MaxBodySize:     loaderCfg.MaxBodySize,
				FallbackCharset: loaderCfg.FallbackCharset,
				Readability:     loaderCfg.Readability,
			})
		case loader.StrategyNameBrowser:
			chromeCfg := cfg.Chrome()
			if !chromeCfg.Enabled {
				l.WithField("strategy", name).Info("Chrome disabled, strategy skipped")
				continue
			}
			s = loader.NewBrowserStrategy(l, loader.BrowserStrategyConfig{
				ExecPath: chromeCfg.Path,
				Flags:    chromeCfg.Opts,
				Proxy:    cfg.HTTP().GetProxy(),
			})
		case loader.StrategyNameSnapshot:
			singleFileCfg := cfg.SingleFile()
			s = loader.NewSnapshotStrategy(l, loader.SnapshotStrategyConfig{
				Path:        singleFileCfg.Path,
				ExtraArgs:   singleFileCfg.Args,
				CookiesFile: loaderCfg.CookiesFile,
			})
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
		}

		strategies = append(strategies, loader.NewThrottledStrategy(s, cfg.StrategyRateLimit(name)))
	}

	return strategies, nil
}

func existingFile(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const EnvPrefix = "LINKREADER_"

const (
	GLOBAL_LANGUAGE        = "global.interface_language"
	HTTP_PROXY             = "http.proxy"
	HTTP_NO_PROXY          = "http.no_proxy"
	LOADER_TIMEOUT         = "loader.timeout"
	LOADER_COOKIES_FILE    = "loader.cookies_file"
	LOADER_STRATEGIES      = "loader.strategies"
	LOADER_ALIASES_FILE    = "loader.aliases_file"
	LOADER_CONCURRENCY     = "loader.concurrency"
	LOADER_READABILITY     = "loader.readability"
	LOADER_MAX_BODY_SIZE   = "loader.max_body_size"
	LOADER_FALLBACK_CHRSET = "loader.fallback_charset"
	YOUTUBE_AUTO_INSTALL   = "youtube.auto_install"
	YOUTUBE_LANGUAGES      = "youtube.languages"
	INSTAGRAM_USERNAME     = "instagram.username"
	INSTAGRAM_PASSWORD     = "instagram.password"
	INSTAGRAM_SESSION_PATH = "instagram.session_path"
	CHROME_ENABLED         = "chrome.enabled"
	CHROME_PATH            = "chrome.path"
	CHROME_OPTS            = "chrome.opts"
	SINGLEFILE_PATH        = "singlefile.path"
	SINGLEFILE_ARGS        = "singlefile.args"
	CACHE_ENABLED          = "cache.enabled"
	CACHE_TTL              = "cache.ttl"
	DATABASE_DSN           = "database.dsn"
	LOGGING_LEVEL          = "logging.level"
	LOGGING_FORMAT         = "logging.format"
	LOGGING_WRITE_IN_FILE  = "logging.write_in_file"
	LOGGING_FILE_PATH      = "logging.file_path"
)

// DefaultStrategies is the chain order from the most specific and cheapest
// strategy to the most general and expensive one.
var DefaultStrategies = []string{
	"youtube",
	"reel",
	"ytdlp",
	"pdf",
	"scraper",
	"http",
	"browser",
	"snapshot",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		GLOBAL_LANGUAGE:        "en",
		HTTP_PROXY:             nil,
		HTTP_NO_PROXY:          []string{},
		LOADER_TIMEOUT:         30 * time.Second,
		LOADER_COOKIES_FILE:    "",
		LOADER_STRATEGIES:      DefaultStrategies,
		LOADER_ALIASES_FILE:    "",
		LOADER_CONCURRENCY:     4,
		LOADER_READABILITY:     false,
		LOADER_MAX_BODY_SIZE:   20 << 20,
		LOADER_FALLBACK_CHRSET: "utf-8",
		YOUTUBE_AUTO_INSTALL:   false,
		YOUTUBE_LANGUAGES:      []string{},
		INSTAGRAM_SESSION_PATH: "instagram_session.json",
		CHROME_ENABLED:         true,
		CHROME_PATH:            getDefaultChromePath(),
		CHROME_OPTS: []string{
			"--headless",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-crash-reporter",
			"--no-crashpad",
		},
		SINGLEFILE_PATH:       "",
		SINGLEFILE_ARGS:       []string{},
		CACHE_ENABLED:         true,
		CACHE_TTL:             1 * time.Hour,
		DATABASE_DSN:          "",
		LOGGING_LEVEL:         "info",
		LOGGING_FORMAT:        "text",
		LOGGING_WRITE_IN_FILE: false,
		LOGGING_FILE_PATH:     "linkreader.log",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	// SingleFile's own override variable wins over the config file.
	if path := os.Getenv("SINGLEFILE_PATH"); path != "" {
		if err := k.Load(confmap.Provider(map[string]any{SINGLEFILE_PATH: path}, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading SINGLEFILE_PATH: %w", err)
		}
	}

	cfg := &Config{k: k}
	if cfg.Loader().Timeout <= 0 {
		return nil, fmt.Errorf("%s must be positive", LOADER_TIMEOUT)
	}

	return cfg, nil
}

// envKey maps LINKREADER_LOADER__COOKIES_FILE to loader.cookies_file.
func envKey(s string) string {
	return strings.ReplaceAll(
		strings.ToLower(strings.TrimPrefix(s, EnvPrefix)),
		"__", ".",
	)
}

func (c *Config) Loader() LoaderConfig {
	strategies := c.k.Strings(LOADER_STRATEGIES)
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	concurrency := c.k.Int(LOADER_CONCURRENCY)
	if concurrency <= 0 {
		concurrency = 1
	}
	return LoaderConfig{
		Timeout:         c.k.Duration(LOADER_TIMEOUT),
		CookiesFile:     c.k.String(LOADER_COOKIES_FILE),
		Strategies:      strategies,
		AliasesFile:     c.k.String(LOADER_ALIASES_FILE),
		Concurrency:     concurrency,
		Readability:     c.k.Bool(LOADER_READABILITY),
		MaxBodySize:     c.k.Int64(LOADER_MAX_BODY_SIZE),
		FallbackCharset: c.k.String(LOADER_FALLBACK_CHRSET),
	}
}

// StrategyRateLimit returns the allowed requests per minute for a strategy, 0 means unlimited.
func (c *Config) StrategyRateLimit(name string) int {
	return c.k.Int(fmt.Sprintf("strategies.%s.rate_limit", name))
}

func (c *Config) Youtube() youtubeConfig {
	return youtubeConfig{
		AutoInstall: c.k.Bool(YOUTUBE_AUTO_INSTALL),
		Languages:   c.k.Strings(YOUTUBE_LANGUAGES),
	}
}

func (c *Config) Instagram() instagramConfig {
	return instagramConfig{
		Username:    c.k.String(INSTAGRAM_USERNAME),
		Password:    c.k.String(INSTAGRAM_PASSWORD),
		SessionPath: c.k.String(INSTAGRAM_SESSION_PATH),
	}
}

func (c *Config) Chrome() chromeConfig {
	return chromeConfig{
		Enabled: c.k.Bool(CHROME_ENABLED),
		Path:    c.k.String(CHROME_PATH),
		Opts:    c.k.Strings(CHROME_OPTS),
	}
}

func (c *Config) SingleFile() singleFileConfig {
	return singleFileConfig{
		Path: c.k.String(SINGLEFILE_PATH),
		Args: c.k.Strings(SINGLEFILE_ARGS),
	}
}

func (c *Config) Cache() cacheConfig {
	return cacheConfig{
		Enabled: c.k.Bool(CACHE_ENABLED),
		TTL:     c.k.Duration(CACHE_TTL),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		Format:      c.k.String(LOGGING_FORMAT),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) GetDatabaseDSN() string {
	return c.k.String(DATABASE_DSN)
}

func (c *Config) Global() globalConfig {
	return globalConfig{
		InterfaceLanguage: c.k.String(GLOBAL_LANGUAGE),
	}
}

// SetInterfaceLanguage overrides the configured language, used by the -lang flag.
func (c *Config) SetInterfaceLanguage(lang string) {
	_ = c.k.Load(confmap.Provider(map[string]any{GLOBAL_LANGUAGE: lang}, "."), nil)
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue, ok := c.k.Get(HTTP_PROXY).(string); ok {
		proxy = proxyValue
	}

	return HTTPConfig{
		proxy:   &proxy,
		noProxy: c.k.Strings(HTTP_NO_PROXY),
	}
}

func getDefaultChromePath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Applications/Chromium.app/Contents/MacOS/Chromium"
	case "linux":
		return "/usr/bin/chromium"
	default:
		return ""
	}
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"linkreader.toml",
		"config.toml",
		filepath.Join(xdgConfig, "linkreader", "config.toml"),
		"/etc/linkreader/config.toml",
	}
}

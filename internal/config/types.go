package config

import (
	"os"
	"strings"
	"time"
)

type globalConfig struct {
	InterfaceLanguage string `koanf:"interface_language"`
}

type HTTPConfig struct {
	proxy   *string  `koanf:"proxy"`
	noProxy []string `koanf:"no_proxy"`
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	if proxyURL := os.Getenv("HTTPS_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("https_proxy"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("HTTP_PROXY"); proxyURL != "" {
		return proxyURL
	}
	if proxyURL := os.Getenv("http_proxy"); proxyURL != "" {
		return proxyURL
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	noProxy := os.Getenv("NO_PROXY")
	if noProxy == "" {
		noProxy = os.Getenv("no_proxy")
	}
	if noProxy == "" {
		return nil
	}
	result := make([]string, 0)
	for item := range strings.SplitSeq(noProxy, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

type LoaderConfig struct {
	Timeout         time.Duration `koanf:"timeout"`
	CookiesFile     string        `koanf:"cookies_file"`
	Strategies      []string      `koanf:"strategies"`
	AliasesFile     string        `koanf:"aliases_file"`
	Concurrency     int           `koanf:"concurrency"`
	Readability     bool          `koanf:"readability"`
	MaxBodySize     int64         `koanf:"max_body_size"`
	FallbackCharset string        `koanf:"fallback_charset"`
}

func (c LoaderConfig) HasCookies() bool {
	return c.CookiesFile != ""
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	Format      string `koanf:"format"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

func (c LoggingConfig) IsJSON() bool {
	return strings.EqualFold(c.Format, "json")
}

type youtubeConfig struct {
	AutoInstall bool     `koanf:"auto_install"`
	Languages   []string `koanf:"languages"`
}

type instagramConfig struct {
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	SessionPath string `koanf:"session_path"`
}

func (c instagramConfig) Credentials() (string, string) {
	return c.Username, c.Password
}

// HasCredentials reports whether a session file exists or a login pair is configured.
func (c instagramConfig) HasCredentials() bool {
	if c.SessionPath != "" {
		if _, err := os.Stat(c.SessionPath); err == nil {
			return true
		}
	}
	return c.Username != "" && c.Password != ""
}

type chromeConfig struct {
	Enabled bool     `koanf:"enabled"`
	Path    string   `koanf:"path"`
	Opts    []string `koanf:"opts"`
}

type singleFileConfig struct {
	Path string   `koanf:"path"`
	Args []string `koanf:"args"`
}

type cacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
}

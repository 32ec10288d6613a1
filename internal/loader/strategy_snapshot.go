package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muratoffalex/linkreader/internal/content"
	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/network"
)

const (
	DefaultSingleFilePath = "single-file"

	snapshotWaitDelay = 2 * time.Second
)

var ErrSnapshotToolNotFound = errors.New("snapshot tool not found")

type SnapshotStrategyConfig struct {
	// Path is the configured SingleFile executable, empty for the default.
	Path        string
	ExtraArgs   []string
	CookiesFile string
	TempDir     string
}

// SnapshotStrategy saves a full page snapshot with the SingleFile CLI into a
// scratch directory and returns the saved HTML. The process runs in its own
// process group and is killed with its children when ctx ends.
type SnapshotStrategy struct {
	BaseStrategy
	config      SnapshotStrategyConfig
	decoder     content.Decoder
	resolvePath func() (string, error)
}

func NewSnapshotStrategy(l logger.Logger, cfg SnapshotStrategyConfig) *SnapshotStrategy {
	path := cfg.Path
	if path == "" {
		path = DefaultSingleFilePath
	}
	return &SnapshotStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameSnapshot, "", l),
		config:       cfg,
		decoder:      content.NewDecoder(""),
		resolvePath: sync.OnceValues(func() (string, error) {
			resolved, err := exec.LookPath(path)
			if err != nil {
				return "", fmt.Errorf("%w: %s", ErrSnapshotToolNotFound, path)
			}
			return resolved, nil
		}),
	}
}

func (s *SnapshotStrategy) Load(ctx context.Context, url string) (string, error) {
	if s.config.CookiesFile != "" {
		if _, err := os.Stat(s.config.CookiesFile); err != nil {
			return "", s.fail(url, fmt.Errorf("%w: %s", network.ErrCookiesFileNotFound, s.config.CookiesFile))
		}
	}

	binary, err := s.resolvePath()
	if err != nil {
		return "", s.fail(url, err)
	}

	dir, err := os.MkdirTemp(s.config.TempDir, "linkreader-snapshot-")
	if err != nil {
		return "", s.failf(url, "failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	output := filepath.Join(dir, uuid.NewString()+".html")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, s.args(url, output)...)
	cmd.Stderr = &stderr
	cmd.WaitDelay = snapshotWaitDelay
	configureProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", s.fail(url, ctx.Err())
		}
		return "", s.failf(url, "single-file failed: %w: %s", err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return "", s.failf(url, "snapshot not written: %w", err)
	}

	s.logger.WithFields(logger.Fields{
		"url":     url,
		"bytes":   len(data),
		"elapsed": time.Since(started).String(),
	}).Debug("Snapshot saved")

	return s.decoder.Decode(data, "text/html"), nil
}

func (s *SnapshotStrategy) args(url, output string) []string {
	args := make([]string, 0, len(s.config.ExtraArgs)+6)
	if s.config.CookiesFile != "" {
		args = append(args, "--browser-cookies-file", s.config.CookiesFile)
	}
	args = append(args, s.config.ExtraArgs...)
	args = append(args, "--filename-conflict-action", "overwrite", url, output)
	return args
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return lines[len(lines)-1]
}

package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/Davincible/goinsta/v3"
	"github.com/muratoffalex/linkreader/internal/logger"
)

var (
	ErrNoCredentials = errors.New("instagram credentials not configured")
	ErrInvalidURL    = errors.New("invalid Instagram URL")
	ErrNoCaption     = errors.New("post has no caption")
)

type Config struct {
	Username    string
	Password    string
	SessionPath string
	Proxy       string
}

type Post struct {
	Username  string
	Caption   string
	MediaType string
}

// Format renders the post as the author line followed by the caption.
func (p Post) Format() string {
	var sb strings.Builder
	if p.Username != "" {
		sb.WriteString("@" + p.Username)
		if p.MediaType != "" {
			sb.WriteString(" (" + p.MediaType + ")")
		}
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.TrimSpace(p.Caption))
	return strings.TrimSpace(sb.String())
}

type mediaGetter func(id string) (*goinsta.FeedMedia, error)

// Service logs in lazily on first use and reuses the session afterwards.
// goinsta is not safe for concurrent use, calls are serialized.
type Service struct {
	config Config
	logger logger.Logger

	mu       sync.Mutex
	getMedia mediaGetter
}

func NewService(l logger.Logger, config Config) *Service {
	return &Service{
		config: config,
		logger: l.WithField("service", "instagram"),
	}
}

func (s *Service) HasCredentials() bool {
	if s.config.SessionPath != "" {
		if _, err := os.Stat(s.config.SessionPath); err == nil {
			return true
		}
	}
	return s.config.Username != "" && s.config.Password != ""
}

func (s *Service) GetPost(ctx context.Context, postURL string) (*Post, error) {
	mediaID := ExtractMediaID(postURL)
	if mediaID == "" {
		return nil, ErrInvalidURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.getMedia == nil {
		if err := s.login(); err != nil {
			return nil, err
		}
	}

	s.logger.WithField("media_id", mediaID).Debug("Extracting media")

	media, err := s.getMedia(mediaID)
	if err != nil && isSessionError(err) {
		if rerr := s.relogin(); rerr != nil {
			return nil, fmt.Errorf("failed to relogin: %w", rerr)
		}
		media, err = s.getMedia(mediaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	return postFromMedia(media)
}

func postFromMedia(media *goinsta.FeedMedia) (*Post, error) {
	post := &Post{}
	for _, item := range media.Items {
		if post.Username == "" && item.User.Username != "" {
			post.Username = item.User.Username
		}
		if post.Caption == "" && item.Caption.Text != "" {
			post.Caption = item.Caption.Text
		}
		if post.MediaType == "" {
			post.MediaType = mediaTypeName(item.MediaType)
		}
	}
	if strings.TrimSpace(post.Caption) == "" {
		return nil, ErrNoCaption
	}
	return post, nil
}

func mediaTypeName(mediaType int) string {
	switch mediaType {
	case 1:
		return "photo"
	case 2:
		return "video"
	case 8:
		return "carousel"
	default:
		return ""
	}
}

func (s *Service) login() error {
	if !s.HasCredentials() {
		return ErrNoCredentials
	}

	if s.config.SessionPath != "" {
		if _, err := os.Stat(s.config.SessionPath); err == nil {
			insta, err := goinsta.Import(s.config.SessionPath)
			if err == nil {
				s.setupProxy(insta)
				s.setup(insta)
				s.logger.Info("Instagram session loaded successfully")
				return nil
			}
			s.logger.WithError(err).Warn("Failed to load Instagram session, creating new one")
		}
	}

	return s.relogin()
}

func (s *Service) relogin() error {
	if s.config.Username == "" || s.config.Password == "" {
		return ErrNoCredentials
	}

	s.logger.Info("Logging in to Instagram")
	insta := goinsta.New(s.config.Username, s.config.Password)
	s.setupProxy(insta)

	if err := insta.Login(); err != nil {
		return fmt.Errorf("failed to login to Instagram: %w", err)
	}

	if s.config.SessionPath != "" {
		if err := insta.Export(s.config.SessionPath); err != nil {
			s.logger.WithError(err).Warn("Failed to save Instagram session")
		}
	}

	s.setup(insta)
	return nil
}

func (s *Service) setup(insta *goinsta.Instagram) {
	s.getMedia = func(id string) (*goinsta.FeedMedia, error) {
		return insta.GetMedia(id)
	}
}

func (s *Service) setupProxy(insta *goinsta.Instagram) {
	if s.config.Proxy == "" {
		return
	}
	proxy, err := url.Parse(s.config.Proxy)
	if err != nil {
		s.logger.WithError(err).Warn("Invalid proxy for Instagram client")
		return
	}
	if err := insta.SetProxy(proxy.String(), false, true); err != nil {
		s.logger.WithError(err).Warn("Failed to set proxy for Instagram client")
	}
}

func isSessionError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"logged out", "login required", "not authorized", "checkpoint required", "challenge required"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

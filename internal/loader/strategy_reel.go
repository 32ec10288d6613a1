package loader

import (
	"context"

	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/muratoffalex/linkreader/internal/service/instagram"
)

type instagramService interface {
	HasCredentials() bool
	GetPost(ctx context.Context, url string) (*instagram.Post, error)
}

// ReelStrategy returns the author and caption of Instagram posts and reels.
type ReelStrategy struct {
	BaseStrategy
	service instagramService
}

func NewReelStrategy(l logger.Logger, service instagramService) *ReelStrategy {
	return &ReelStrategy{
		BaseStrategy: NewBaseStrategy(StrategyNameReel, instagram.URLPattern, l),
		service:      service,
	}
}

func (s *ReelStrategy) Load(ctx context.Context, url string) (string, error) {
	if !s.CanHandle(url) {
		return "", s.inapplicable(url)
	}
	if !s.service.HasCredentials() {
		return "", s.fail(url, instagram.ErrNoCredentials)
	}

	post, err := s.service.GetPost(ctx, url)
	if err != nil {
		return "", s.fail(url, err)
	}

	return post.Format(), nil
}

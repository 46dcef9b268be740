package poster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"movieReco/pkg/logger"
	"movieReco/pkg/metrics"
)

var ErrNotConfigured = errors.New("poster lookup is not configured")

type Searcher interface {
	SearchPoster(ctx context.Context, title string, year int) (string, error)
}

type Cache interface {
	Get(ctx context.Context, title string, year int) (string, bool, error)
	Set(ctx context.Context, title string, year int, url string) error
}

type Service struct {
	searcher  Searcher
	cache     Cache
	imageBase string
}

// NewService builds the poster lookup. searcher may be nil when no TMDB key is
// configured; cache may be nil to disable caching.
func NewService(searcher Searcher, cache Cache, imageBaseURL string) *Service {
	return &Service{
		searcher:  searcher,
		cache:     cache,
		imageBase: strings.TrimRight(imageBaseURL, "/"),
	}
}

// PosterURL returns the full poster image URL, or "" when TMDB knows no
// poster for the movie. A year of 0 means unknown.
func (s *Service) PosterURL(ctx context.Context, title string, year int) (string, error) {
	if s.searcher == nil {
		return "", ErrNotConfigured
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("title is required")
	}

	if s.cache != nil {
		url, found, err := s.cache.Get(ctx, title, year)
		if err != nil {
			logger.Warn("poster cache read failed", "title", title, "error", err)
		} else if found {
			metrics.PosterLookups.WithLabelValues("cache_hit").Inc()
			return url, nil
		}
	}

	path, err := s.searcher.SearchPoster(ctx, title, year)
	if err == nil && path == "" && year > 0 {
		path, err = s.searcher.SearchPoster(ctx, title, 0)
	}
	if err != nil {
		metrics.PosterLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to search poster: %w", err)
	}

	url := ""
	if path != "" {
		url = s.imageBase + path
		metrics.PosterLookups.WithLabelValues("found").Inc()
	} else {
		metrics.PosterLookups.WithLabelValues("not_found").Inc()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, title, year, url); err != nil {
			logger.Warn("poster cache write failed", "title", title, "error", err)
		}
	}
	return url, nil
}

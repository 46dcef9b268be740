package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"movieReco/pkg/config"
	"movieReco/pkg/logger"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

var ErrUnavailable = errors.New("tmdb unavailable")

// statusError is a non-200 answer from the search endpoint.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// transport errors
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type searchResponse struct {
	Results []struct {
		PosterPath *string `json:"poster_path"`
	} `json:"results"`
}

// Client searches TMDB for movie posters. Calls are rate limited, retried on
// 429 and 5xx answers and guarded by a circuit breaker.
type Client struct {
	apiKey     string
	searchURL  string
	http       *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[string]
	maxRetries int
	retryDelay time.Duration
}

func NewClient(cfg config.TMDBConfig) *Client {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "tmdb-search",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		apiKey:     cfg.APIKey,
		searchURL:  cfg.SearchURL,
		http:       &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
		cb:         cb,
		maxRetries: retries,
		retryDelay: 500 * time.Millisecond,
	}
}

// SearchPoster returns the poster path of the first search result, or "" when
// TMDB has no match. A year of 0 searches by title only.
func (c *Client) SearchPoster(ctx context.Context, title string, year int) (string, error) {
	path, err := c.cb.Execute(func() (string, error) {
		return c.searchWithRetry(ctx, title, year)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return "", err
	}
	return path, nil
}

func (c *Client) searchWithRetry(ctx context.Context, title string, year int) (string, error) {
	var err error
	delay := c.retryDelay

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		var path string
		path, err = c.search(ctx, title, year)
		if err == nil {
			return path, nil
		}
		if !retryable(err) {
			return "", err
		}

		if attempt < c.maxRetries-1 {
			logger.Warn("tmdb search retry", "attempt", attempt+1, "max_attempts", c.maxRetries, "delay", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}
	}

	return "", fmt.Errorf("max retry attempts reached: %w", err)
}

func (c *Client) search(ctx context.Context, title string, year int) (string, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s := string(body)
		if len(s) > 200 {
			s = s[:200]
		}
		return "", &statusError{code: resp.StatusCode, body: s}
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Results) == 0 || out.Results[0].PosterPath == nil {
		return "", nil
	}
	return *out.Results[0].PosterPath, nil
}

package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"movieReco/domain"
	"movieReco/pkg/logger"
	"movieReco/pkg/metrics"
)

type Config struct {
	// Neighbours is the maximum number of similar users consulted per prediction.
	Neighbours int
	// MinNeighbours below which a prediction is impossible and yields 0.
	MinNeighbours int
	// Similarity is "msd" or "cosine".
	Similarity string
}

func DefaultConfig() Config {
	return Config{Neighbours: 40, MinNeighbours: 1, Similarity: SimilarityMSD}
}

type Stats struct {
	Trained   bool      `json:"trained"`
	Users     int       `json:"users"`
	Items     int       `json:"items"`
	Events    int       `json:"events"`
	Version   uint64    `json:"version"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// Model holds the current collaborative model. A nil model means no feedback
// has been seen and every prediction is 0.
type Model struct {
	cfg Config

	mu        sync.RWMutex
	current   *knn
	version   uint64
	trainedAt time.Time
}

func NewModel(cfg Config) *Model {
	def := DefaultConfig()
	if cfg.Neighbours <= 0 {
		cfg.Neighbours = def.Neighbours
	}
	if cfg.MinNeighbours <= 0 {
		cfg.MinNeighbours = def.MinNeighbours
	}
	if cfg.Similarity == "" {
		cfg.Similarity = def.Similarity
	}
	return &Model{cfg: cfg}
}

// Retrain replaces the model with one fitted on the full event history.
// Fitting happens before the write lock is taken; an empty history clears the model.
func (m *Model) Retrain(ctx context.Context, events []domain.FeedbackEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	start := time.Now()

	var next *knn
	if len(events) > 0 {
		var err error
		if next, err = train(ctx, events, m.cfg.Similarity); err != nil {
			return fmt.Errorf("failed to train collaborative model: %w", err)
		}
	}

	m.mu.Lock()
	m.current = next
	m.version++
	m.trainedAt = time.Now()
	version := m.version
	m.mu.Unlock()

	users := 0
	if next != nil {
		users = len(next.ratings)
	}
	metrics.RetrainDuration.Observe(time.Since(start).Seconds())
	metrics.ModelUsers.Set(float64(users))

	logger.Debug("collab_retrain",
		"version", version,
		"events", len(events),
		"users", users,
		"took", time.Since(start).String(),
	)
	return nil
}

// Predict estimates the user's preference for item in [0,1].
// It returns 0 when no model exists, the user or item is unknown, or no neighbour qualifies.
func (m *Model) Predict(userID uint, itemID int64) (est float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("collab predict panicked", "user_id", userID, "item_id", itemID, "panic", r)
			est = 0
		}
	}()

	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current == nil {
		return 0
	}

	v, ok := current.estimate(userID, itemID, m.cfg.Neighbours, m.cfg.MinNeighbours)
	if !ok {
		return 0
	}
	return v
}

func (m *Model) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{Version: m.version, TrainedAt: m.trainedAt}
	if m.current != nil {
		st.Trained = true
		st.Users = len(m.current.ratings)
		st.Items = len(m.current.raters)
		st.Events = m.current.events
	}
	return st
}

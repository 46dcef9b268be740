package hybrid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"movieReco/business/exploration"
	"movieReco/domain"
	"movieReco/pkg/logger"
	"movieReco/pkg/metrics"
)

var ErrInvalidAlpha = errors.New("alpha must be within [0,1]")

// ---- collaborator interfaces ----

type SemanticSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]domain.ScoredItem, error)
}

type Predictor interface {
	Predict(userID uint, itemID int64) float64
}

type RewardSource interface {
	AverageReward(itemID int64) float64
}

type Config struct {
	DefaultTopK         int
	CandidateMultiplier int
}

func DefaultConfig() Config {
	return Config{DefaultTopK: 5, CandidateMultiplier: 2}
}

// ---- Service ----

type HybridService struct {
	searcher  SemanticSearcher
	predictor Predictor
	rewards   RewardSource
	policy    exploration.Policy
	cfg       Config
}

func NewHybridService(
	searcher SemanticSearcher,
	predictor Predictor,
	rewards RewardSource,
	policy exploration.Policy,
	cfg Config,
) *HybridService {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = DefaultConfig().DefaultTopK
	}
	if cfg.CandidateMultiplier < 1 {
		cfg.CandidateMultiplier = DefaultConfig().CandidateMultiplier
	}
	if policy == nil {
		policy = exploration.Greedy{}
	}

	return &HybridService{
		searcher:  searcher,
		predictor: predictor,
		rewards:   rewards,
		policy:    policy,
		cfg:       cfg,
	}
}

type candidate struct {
	item     domain.Item
	semantic float64
	collab   float64
	adjusted float64
}

// Recommend ranks semantic candidates for query by the blended score and
// lets the exploration policy fill topK slots.
func (s *HybridService) Recommend(ctx context.Context, userID uint, query string, topK int, alpha float64) ([]domain.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if alpha < 0 || alpha > 1 {
		return nil, ErrInvalidAlpha
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	start := time.Now()
	tid := TraceIDFromContext(ctx)

	hits, err := s.searcher.Search(ctx, query, topK*s.cfg.CandidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	cands := make([]candidate, len(hits))
	for i, h := range hits {
		collab := s.predict(userID, h.Item.ID)
		combined := Combine(h.Score, collab, alpha)
		cands[i] = candidate{
			item:     h.Item,
			semantic: h.Score,
			collab:   collab,
			adjusted: Adjust(combined, s.rewards.AverageReward(h.Item.ID)),
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].adjusted > cands[j].adjusted
	})

	chosen, picks := exploration.Apply(s.policy, cands, topK)

	out := make([]domain.Recommendation, len(chosen))
	explored := 0
	for i, c := range chosen {
		if picks[i].Explored {
			explored++
		}
		out[i] = domain.Recommendation{
			ItemID:             c.item.ID,
			Title:              c.item.Title,
			Description:        c.item.Description,
			Year:               c.item.Year,
			PosterPath:         c.item.PosterPath,
			Rating:             c.item.Rating,
			SemanticScore:      round3(c.semantic),
			CollaborativeScore: round3(c.collab),
			FinalScore:         round3(c.adjusted),
			Explored:           picks[i].Explored,
		}
	}

	metrics.RecommendTotal.Inc()
	metrics.ExploreCount.Add(float64(explored))
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())

	logger.Debug("hybrid_recommend",
		"trace_id", tid,
		"user_id", userID,
		"top_k", topK,
		"alpha", alpha,
		"candidates", len(cands),
		"returned", len(out),
		"explored", explored,
		"policy", s.policy.Name(),
	)

	return out, nil
}

// predict absorbs any failure of the collaborative lookup as a zero score.
func (s *HybridService) predict(userID uint, itemID int64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("collab prediction failed", "user_id", userID, "item_id", itemID, "panic", r)
			v = 0
		}
	}()
	return s.predictor.Predict(userID, itemID)
}

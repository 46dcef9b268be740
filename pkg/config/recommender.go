package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default tuning values for the hybrid recommender.
const (
	DefaultAlpha               = 0.7
	DefaultEpsilon             = 0.1
	DefaultTopK                = 5
	DefaultCandidateMultiplier = 2
	DefaultNeighbours          = 40
	DefaultMinNeighbours       = 1
	DefaultSimilarity          = "msd"
)

func DefaultRecommender() RecommenderConfig {
	return RecommenderConfig{
		Alpha:               DefaultAlpha,
		Epsilon:             DefaultEpsilon,
		TopK:                DefaultTopK,
		CandidateMultiplier: DefaultCandidateMultiplier,
		Neighbours:          DefaultNeighbours,
		MinNeighbours:       DefaultMinNeighbours,
		Similarity:          DefaultSimilarity,
	}
}

// Overlay merges the YAML file at path over the current values.
// A missing file leaves the values untouched.
func (r *RecommenderConfig) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read recommender config: %w", err)
	}

	if err := yaml.Unmarshal(data, r); err != nil {
		return fmt.Errorf("failed to parse recommender config: %w", err)
	}

	return nil
}

func (r RecommenderConfig) Validate() error {
	if r.Alpha < 0 || r.Alpha > 1 {
		return fmt.Errorf("alpha must be within [0,1], got %v", r.Alpha)
	}
	if r.Epsilon < 0 || r.Epsilon > 1 {
		return fmt.Errorf("epsilon must be within [0,1], got %v", r.Epsilon)
	}
	if r.TopK <= 0 {
		return errors.New("top_k must be positive")
	}
	if r.CandidateMultiplier < 1 {
		return errors.New("candidate_multiplier must be at least 1")
	}
	if r.Neighbours <= 0 || r.MinNeighbours <= 0 {
		return errors.New("neighbour counts must be positive")
	}
	switch r.Similarity {
	case "msd", "cosine":
	default:
		return fmt.Errorf("unknown similarity %q", r.Similarity)
	}
	return nil
}

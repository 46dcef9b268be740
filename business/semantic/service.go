package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"movieReco/domain"
	"movieReco/pkg/logger"
	"movieReco/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEmbedding    = errors.New("embedding failed")
	ErrPersistIndex = errors.New("failed to persist index")
	ErrItemNotFound = errors.New("item not found")
)

const (
	defaultBatchSize = 64
	defaultWorkers   = 4
	personalizeShift = 0.1
)

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelName() string
}

// Snapshot is the persisted form of the index.
type Snapshot struct {
	Model     string
	Dimension int
	IDs       []int64
	Vectors   [][]float32
}

// ArtifactStore persists index vectors keyed by item id.
// Load returns nil when nothing has been stored yet.
type ArtifactStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Replace(ctx context.Context, snap Snapshot) error
	Append(ctx context.Context, model string, dim int, ids []int64, vectors [][]float32) error
}

// FeedbackLookup supplies a user's feedback history for personalized search.
type FeedbackLookup interface {
	ListByUser(ctx context.Context, userID uint) ([]domain.FeedbackEvent, error)
}

type Options struct {
	BatchSize int
	Workers   int
	// ClampPersonalized bounds personalized scores to [-1,1].
	ClampPersonalized bool
	// Progress is called after each embedded batch, possibly from several goroutines.
	Progress func(done, total int)
}

type Stats struct {
	Items     int    `json:"items"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
	Persisted int    `json:"persisted"`
}

type Service struct {
	embedder Embedder
	store    ArtifactStore
	feedback FeedbackLookup
	opts     Options

	index *Index

	mu    sync.RWMutex
	items map[int64]domain.Item

	// writeMu serializes Open, Build and Refresh.
	writeMu      sync.Mutex
	needsReplace bool
	persisted    atomic.Int64
}

func NewService(embedder Embedder, store ArtifactStore, feedback FeedbackLookup, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	return &Service{
		embedder: embedder,
		store:    store,
		feedback: feedback,
		opts:     opts,
		index:    NewIndex(),
		items:    make(map[int64]domain.Item),
	}
}

// SetProgress replaces the batch progress hook.
func (s *Service) SetProgress(fn func(done, total int)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.opts.Progress = fn
}

// Open loads persisted artifacts when they match the catalog and embedder,
// and builds from scratch otherwise. It reports whether a build ran.
func (s *Service) Open(ctx context.Context, catalog []domain.Item) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	items := dedupe(catalog)

	if s.store != nil {
		snap, err := s.store.Load(ctx)
		if err != nil {
			logger.Warn("index artifacts unreadable, rebuilding", "error", err)
		} else if s.consistent(snap, items) {
			err := s.index.Replace(snap.IDs, snap.Vectors)
			if err == nil {
				s.setItems(items)
				s.persisted.Store(int64(len(snap.IDs)))
				s.needsReplace = false
				metrics.IndexSize.Set(float64(len(snap.IDs)))
				logger.Info("index loaded from artifacts", "items", len(snap.IDs), "model", snap.Model)
				return false, nil
			}
			logger.Warn("index artifacts invalid, rebuilding", "error", err)
		}
	}

	return true, s.build(ctx, items)
}

func (s *Service) consistent(snap *Snapshot, items []domain.Item) bool {
	if snap == nil || len(snap.IDs) != len(items) || len(snap.IDs) != len(snap.Vectors) {
		return false
	}
	if snap.Model != s.embedder.ModelName() {
		return false
	}
	if dim := s.embedder.Dimension(); dim > 0 && snap.Dimension != dim {
		return false
	}

	known := make(map[int64]struct{}, len(items))
	for _, it := range items {
		known[it.ID] = struct{}{}
	}
	for _, id := range snap.IDs {
		if _, ok := known[id]; !ok {
			return false
		}
	}
	return true
}

// Build embeds the whole catalog and replaces the index.
func (s *Service) Build(ctx context.Context, catalog []domain.Item) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.build(ctx, dedupe(catalog))
}

func (s *Service) build(ctx context.Context, items []domain.Item) error {
	vectors, err := s.embedItems(ctx, items)
	if err != nil {
		return err
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	if err := s.index.Replace(ids, vectors); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	s.setItems(items)
	s.persisted.Store(0)
	s.needsReplace = true
	metrics.IndexSize.Set(float64(len(ids)))

	logger.Info("index built", "items", len(ids), "model", s.embedder.ModelName())
	return s.persist(ctx)
}

// Refresh embeds and appends catalog items that are not indexed yet.
// It returns the number of items added. Replaying it is harmless.
func (s *Service) Refresh(ctx context.Context, catalog []domain.Item) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	items := dedupe(catalog)

	var fresh []domain.Item
	for _, it := range items {
		if !s.index.Has(it.ID) {
			fresh = append(fresh, it)
		}
	}

	added := 0
	if len(fresh) > 0 {
		vectors, err := s.embedItems(ctx, fresh)
		if err != nil {
			return 0, err
		}

		// items become resolvable before their vectors are searchable
		s.mu.Lock()
		for _, it := range fresh {
			s.items[it.ID] = it
		}
		s.mu.Unlock()

		ids := make([]int64, len(fresh))
		for i, it := range fresh {
			ids[i] = it.ID
		}
		if added, err = s.index.Add(ids, vectors); err != nil {
			return 0, fmt.Errorf("failed to extend index: %w", err)
		}
		metrics.IndexSize.Set(float64(s.index.Len()))
	}

	if err := s.persist(ctx); err != nil {
		return added, err
	}

	if added > 0 {
		logger.Info("index refreshed", "added", added, "total", s.index.Len())
	}
	return added, nil
}

// persist writes whatever the store has not seen yet. Caller holds writeMu.
func (s *Service) persist(ctx context.Context) error {
	if s.store == nil {
		s.persisted.Store(int64(s.index.Len()))
		return nil
	}

	model, dim := s.embedder.ModelName(), s.index.Dimension()

	if s.needsReplace {
		ids, vectors := s.index.Entries(0)
		snap := Snapshot{Model: model, Dimension: dim, IDs: ids, Vectors: vectors}
		if err := s.store.Replace(ctx, snap); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistIndex, err)
		}
		s.needsReplace = false
		s.persisted.Store(int64(len(ids)))
		return nil
	}

	ids, vectors := s.index.Entries(int(s.persisted.Load()))
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.Append(ctx, model, dim, ids, vectors); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistIndex, err)
	}
	s.persisted.Add(int64(len(ids)))
	return nil
}

// Search returns the topK catalog items closest to query, best first.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]domain.ScoredItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	if topK <= 0 || s.index.Len() == 0 {
		return []domain.ScoredItem{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", ErrEmbedding, len(vectors))
	}

	hits, err := s.index.Search(normalize(vectors[0]), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScoredItem, 0, len(hits))
	for _, h := range hits {
		it, ok := s.items[h.ID]
		if !ok {
			continue
		}
		out = append(out, domain.ScoredItem{Item: it, Score: clampUnit(h.Score)})
	}
	return out, nil
}

// SearchPersonalized is Search with the caller's like/dislike history applied.
// A failing history lookup is logged and the plain ranking is returned.
func (s *Service) SearchPersonalized(ctx context.Context, query string, topK int, userID uint) ([]domain.ScoredItem, error) {
	results, err := s.Search(ctx, query, topK)
	if err != nil || len(results) == 0 || s.feedback == nil {
		return results, err
	}

	events, err := s.feedback.ListByUser(ctx, userID)
	if err != nil {
		logger.Warn("personalization skipped", "user_id", userID, "error", err)
		return results, nil
	}

	return Personalize(results, events, s.opts.ClampPersonalized), nil
}

// Personalize shifts scores by +0.1 for liked items and -0.1 for disliked ones
// and re-sorts. A like outranks a dislike for the same item.
func Personalize(results []domain.ScoredItem, events []domain.FeedbackEvent, clamp bool) []domain.ScoredItem {
	liked := make(map[int64]bool)
	disliked := make(map[int64]bool)
	for _, ev := range events {
		switch ev.Kind {
		case domain.FeedbackLike:
			liked[ev.ItemID] = true
		case domain.FeedbackDislike:
			disliked[ev.ItemID] = true
		}
	}

	out := make([]domain.ScoredItem, len(results))
	copy(out, results)
	for i := range out {
		id := out[i].Item.ID
		switch {
		case liked[id]:
			out[i].Score += personalizeShift
		case disliked[id]:
			out[i].Score -= personalizeShift
		}
		if clamp {
			out[i].Score = clampUnit(out[i].Score)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func (s *Service) Item(id int64) (domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Title returns the catalog title for id or a placeholder.
func (s *Service) Title(id int64) string {
	if it, ok := s.Item(id); ok && it.Title != "" {
		return it.Title
	}
	return fmt.Sprintf("Movie %d", id)
}

func (s *Service) Len() int {
	return s.index.Len()
}

// Vector returns the stored unit vector for an item.
func (s *Service) Vector(id int64) ([]float32, bool) {
	return s.index.Vector(id)
}

func (s *Service) Stats() Stats {
	return Stats{
		Items:     s.index.Len(),
		Dimension: s.index.Dimension(),
		Model:     s.embedder.ModelName(),
		Persisted: int(s.persisted.Load()),
	}
}

func (s *Service) setItems(items []domain.Item) {
	m := make(map[int64]domain.Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}

	s.mu.Lock()
	s.items = m
	s.mu.Unlock()
}

// embedItems embeds items in parallel batches and returns unit vectors in item order.
func (s *Service) embedItems(ctx context.Context, items []domain.Item) ([][]float32, error) {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.EmbeddingText()
	}

	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for start := 0; start < len(texts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(texts))

		g.Go(func() error {
			vectors, err := s.embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vectors) != end-start {
				return fmt.Errorf("expected %d vectors, got %d", end-start, len(vectors))
			}
			for i, v := range vectors {
				out[start+i] = normalize(v)
			}

			n := done.Add(int64(end - start))
			if s.opts.Progress != nil {
				s.opts.Progress(int(n), len(texts))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return out, nil
}

// dedupe keeps the first occurrence of every id, preserving catalog order.
func dedupe(catalog []domain.Item) []domain.Item {
	seen := make(map[int64]struct{}, len(catalog))
	out := make([]domain.Item, 0, len(catalog))
	for _, it := range catalog {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

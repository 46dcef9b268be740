package collab

import (
	"context"
	"math"
	"sort"

	"movieReco/domain"
)

const (
	SimilarityMSD    = "msd"
	SimilarityCosine = "cosine"
)

type rater struct {
	user  uint
	value float64
}

type pairKey struct{ a, b uint }

type pairStats struct {
	n      int
	sqDiff float64
	dot    float64
	sqA    float64
	sqB    float64
}

// knn is an immutable user-based neighbourhood model.
type knn struct {
	ratings map[uint]map[int64]float64
	raters  map[int64][]rater
	sims    map[pairKey]float64
	events  int
}

// ratingMatrix keeps the latest score per (user, item).
func ratingMatrix(events []domain.FeedbackEvent) map[uint]map[int64]float64 {
	ordered := make([]domain.FeedbackEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	ratings := make(map[uint]map[int64]float64)
	for _, ev := range ordered {
		row, ok := ratings[ev.UserID]
		if !ok {
			row = make(map[int64]float64)
			ratings[ev.UserID] = row
		}
		row[ev.ItemID] = ev.Kind.Score()
	}
	return ratings
}

func train(ctx context.Context, events []domain.FeedbackEvent, similarity string) (*knn, error) {
	m := &knn{
		ratings: ratingMatrix(events),
		raters:  make(map[int64][]rater),
		sims:    make(map[pairKey]float64),
		events:  len(events),
	}

	for user, row := range m.ratings {
		for item, v := range row {
			m.raters[item] = append(m.raters[item], rater{user: user, value: v})
		}
	}
	for item := range m.raters {
		rs := m.raters[item]
		sort.Slice(rs, func(i, j int) bool { return rs[i].user < rs[j].user })
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acc := make(map[pairKey]*pairStats)
	for _, rs := range m.raters {
		for i := 0; i < len(rs); i++ {
			for j := i + 1; j < len(rs); j++ {
				k := pairKey{rs[i].user, rs[j].user}
				st := acc[k]
				if st == nil {
					st = &pairStats{}
					acc[k] = st
				}
				a, b := rs[i].value, rs[j].value
				st.n++
				st.sqDiff += (a - b) * (a - b)
				st.dot += a * b
				st.sqA += a * a
				st.sqB += b * b
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	for k, st := range acc {
		m.sims[k] = st.similarity(similarity)
	}
	return m, nil
}

func (st *pairStats) similarity(kind string) float64 {
	if st.n == 0 {
		return 0
	}
	switch kind {
	case SimilarityCosine:
		if st.sqA == 0 || st.sqB == 0 {
			return 0
		}
		return st.dot / math.Sqrt(st.sqA*st.sqB)
	default:
		msd := st.sqDiff / float64(st.n)
		return 1 / (msd + 1)
	}
}

func (m *knn) similarity(a, b uint) float64 {
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return m.sims[pairKey{a, b}]
}

// estimate is the similarity-weighted mean rating of the k nearest users who rated item.
// ok is false when fewer than minK positive-similarity neighbours exist.
func (m *knn) estimate(user uint, item int64, k, minK int) (float64, bool) {
	if _, known := m.ratings[user]; !known {
		return 0, false
	}
	rs, known := m.raters[item]
	if !known {
		return 0, false
	}

	type neighbour struct {
		user uint
		sim  float64
		r    float64
	}
	ns := make([]neighbour, 0, len(rs))
	for _, r := range rs {
		ns = append(ns, neighbour{user: r.user, sim: m.similarity(user, r.user), r: r.value})
	}
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].sim > ns[j].sim })
	if len(ns) > k {
		ns = ns[:k]
	}

	var sumSim, sumRatings float64
	actual := 0
	for _, n := range ns {
		if n.sim > 0 {
			sumSim += n.sim
			sumRatings += n.sim * n.r
			actual++
		}
	}
	if actual < minK || sumSim == 0 {
		return 0, false
	}
	return sumRatings / sumSim, true
}

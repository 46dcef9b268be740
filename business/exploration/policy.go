package exploration

import (
	"math/rand"
	"sync"
	"time"
)

// Pick is one output slot: the index of the chosen candidate and whether it
// came from an exploration draw.
type Pick struct {
	Index    int
	Explored bool
}

// Policy chooses topK slots from n ranked candidates.
type Policy interface {
	Name() string
	Select(n, topK int) []Pick
}

// Greedy always exploits.
type Greedy struct{}

func (Greedy) Name() string { return "greedy" }

func (Greedy) Select(n, topK int) []Pick {
	k := min(n, topK)
	if k <= 0 {
		return nil
	}
	out := make([]Pick, k)
	for i := range out {
		out[i] = Pick{Index: i}
	}
	return out
}

// EpsilonGreedy replaces each exploit slot, independently with probability
// epsilon, by a uniform draw over all candidates. Draws may repeat.
type EpsilonGreedy struct {
	epsilon float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEpsilonGreedy builds the policy. A zero seed uses the current time.
func NewEpsilonGreedy(epsilon float64, seed int64) *EpsilonGreedy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if epsilon < 0 {
		epsilon = 0
	} else if epsilon > 1 {
		epsilon = 1
	}
	return &EpsilonGreedy{epsilon: epsilon, rng: rand.New(rand.NewSource(seed))}
}

func (p *EpsilonGreedy) Name() string { return "epsilon_greedy" }

func (p *EpsilonGreedy) Epsilon() float64 { return p.epsilon }

func (p *EpsilonGreedy) Select(n, topK int) []Pick {
	out := Greedy{}.Select(n, topK)
	if p.epsilon == 0 || len(out) == 0 {
		return out
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range out {
		if p.rng.Float64() < p.epsilon {
			out[i] = Pick{Index: p.rng.Intn(n), Explored: true}
		}
	}
	return out
}

// Apply maps picks back onto the ranked slice.
func Apply[T any](p Policy, ranked []T, topK int) ([]T, []Pick) {
	picks := p.Select(len(ranked), topK)
	out := make([]T, len(picks))
	for i, pk := range picks {
		out[i] = ranked[pk.Index]
	}
	return out, picks
}

//go:build !integration

package exploration

import (
	"math"
	"sync"
	"testing"
)

func TestLedgerRewardAccounting(t *testing.T) {
	l := NewLedger()

	if got := l.AverageReward(42); got != 0 {
		t.Errorf("unseen item average = %v", got)
	}

	l.RecordReward(42, 1.0)
	l.RecordReward(42, 1.0)
	l.RecordReward(42, 0.0)

	e, ok := l.Entry(42)
	if !ok || e.Shown != 3 || e.Reward != 2.0 {
		t.Fatalf("entry = %+v ok=%v", e, ok)
	}

	want := 2.0 / (3 + 1e-5)
	if got := l.AverageReward(42); math.Abs(got-want) > 1e-12 {
		t.Errorf("average = %v, want %v", got, want)
	}
	if got := l.AverageReward(42); math.Abs(got-0.667) > 1e-3 {
		t.Errorf("average = %v, want about 0.667", got)
	}
}

func TestLedgerClampsReward(t *testing.T) {
	l := NewLedger()
	l.RecordReward(1, 3)
	l.RecordReward(1, -2)

	e, _ := l.Entry(1)
	if e.Reward != 1 || e.Shown != 2 {
		t.Errorf("entry = %+v", e)
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Reset left %d entries", l.Len())
	}
}

func TestLedgerConcurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.RecordReward(7, 0.5)
				_ = l.AverageReward(7)
			}
		}()
	}
	wg.Wait()

	e, _ := l.Entry(7)
	if e.Shown != 1000 {
		t.Errorf("shown = %d, want 1000", e.Shown)
	}
}

func TestEpsilonGreedySelect(t *testing.T) {
	tests := []struct {
		name    string
		epsilon float64
		n, k    int
		check   func(t *testing.T, picks []Pick)
	}{
		{
			name: "epsilon 0 exploits in order", epsilon: 0, n: 10, k: 5,
			check: func(t *testing.T, picks []Pick) {
				for i, p := range picks {
					if p.Index != i || p.Explored {
						t.Errorf("slot %d = %+v", i, p)
					}
				}
			},
		},
		{
			name: "epsilon 1 explores every slot", epsilon: 1, n: 10, k: 5,
			check: func(t *testing.T, picks []Pick) {
				for i, p := range picks {
					if !p.Explored || p.Index < 0 || p.Index >= 10 {
						t.Errorf("slot %d = %+v", i, p)
					}
				}
			},
		},
		{
			name: "fewer candidates than topK", epsilon: 0, n: 3, k: 5,
			check: func(t *testing.T, picks []Pick) {
				if len(picks) != 3 {
					t.Errorf("got %d picks, want 3", len(picks))
				}
			},
		},
		{
			name: "no candidates", epsilon: 0.5, n: 0, k: 5,
			check: func(t *testing.T, picks []Pick) {
				if len(picks) != 0 {
					t.Errorf("got %d picks", len(picks))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewEpsilonGreedy(tt.epsilon, 1)
			picks := p.Select(tt.n, tt.k)
			if tt.n >= tt.k && len(picks) != tt.k {
				t.Fatalf("got %d picks, want %d", len(picks), tt.k)
			}
			tt.check(t, picks)
		})
	}
}

func TestEpsilonGreedyRate(t *testing.T) {
	p := NewEpsilonGreedy(0.2, 99)

	explored, total := 0, 0
	for i := 0; i < 2000; i++ {
		for _, pk := range p.Select(20, 5) {
			total++
			if pk.Explored {
				explored++
			}
		}
	}

	rate := float64(explored) / float64(total)
	if rate < 0.17 || rate > 0.23 {
		t.Errorf("exploration rate = %.3f, want about 0.2", rate)
	}
}

func TestEpsilonGreedyDeterministicSeed(t *testing.T) {
	a := NewEpsilonGreedy(0.5, 7).Select(50, 10)
	b := NewEpsilonGreedy(0.5, 7).Select(50, 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at slot %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestApply(t *testing.T) {
	ranked := []string{"a", "b", "c", "d"}

	out, picks := Apply[string](Greedy{}, ranked, 2)
	if len(out) != 2 || out[0] != "a" || out[1] != "b" {
		t.Errorf("Apply greedy = %v", out)
	}
	if len(picks) != 2 {
		t.Errorf("picks = %v", picks)
	}

	out, _ = Apply[string](NewEpsilonGreedy(1, 3), ranked, 4)
	for _, s := range out {
		if s < "a" || s > "d" {
			t.Errorf("explored value %q not from candidates", s)
		}
	}
}

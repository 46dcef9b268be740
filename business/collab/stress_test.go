//go:build !integration

package collab

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"movieReco/domain"
)

// scenario params
const (
	stressNumUsers        = 400
	stressNumItems        = 300
	stressFeedbackPerUser = 20
)

var stressKinds = []domain.FeedbackKind{
	domain.FeedbackLike,
	domain.FeedbackClick,
	domain.FeedbackDislike,
	domain.FeedbackView,
}

func stressHistory(rng *rand.Rand) []domain.FeedbackEvent {
	events := make([]domain.FeedbackEvent, 0, stressNumUsers*stressFeedbackPerUser)
	for u := 1; u <= stressNumUsers; u++ {
		for i := 0; i < stressFeedbackPerUser; i++ {
			events = append(events, ev(
				uint(u),
				int64(rng.Intn(stressNumItems)+1),
				stressKinds[rng.Intn(len(stressKinds))],
				len(events),
			))
		}
	}
	return events
}

func TestModelGrowthUnderConcurrentPredict(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	history := stressHistory(rng)

	m := NewModel(DefaultConfig())

	start := time.Now()
	if err := m.Retrain(ctx, history[:len(history)/2]); err != nil {
		t.Fatal(err)
	}
	half := m.Stats()
	t.Logf("[HALF] events=%d users=%d items=%d took=%s", len(history)/2, half.Users, half.Items, time.Since(start))

	// readers keep predicting while the full history is fitted
	stop := make(chan struct{})
	var wg sync.WaitGroup
	var outOfRange sync.Map
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
				}
				user := uint(r.Intn(stressNumUsers) + 1)
				item := int64(r.Intn(stressNumItems) + 1)
				if p := m.Predict(user, item); p < 0 || p > 1 {
					outOfRange.Store([2]int64{int64(user), item}, p)
				}
			}
		}(int64(w))
	}

	start = time.Now()
	if err := m.Retrain(ctx, history); err != nil {
		t.Fatal(err)
	}
	close(stop)
	wg.Wait()

	full := m.Stats()
	t.Logf("[FULL] events=%d users=%d items=%d took=%s", len(history), full.Users, full.Items, time.Since(start))

	if full.Users != stressNumUsers {
		t.Errorf("users = %d, want %d", full.Users, stressNumUsers)
	}
	if full.Items < half.Items || full.Items > stressNumItems {
		t.Errorf("items = %d, want between %d and %d", full.Items, half.Items, stressNumItems)
	}
	if full.Version != half.Version+1 {
		t.Errorf("version = %d, want %d", full.Version, half.Version+1)
	}
	outOfRange.Range(func(k, v any) bool {
		t.Errorf("prediction out of range for %v: %v", k, v)
		return true
	})
}

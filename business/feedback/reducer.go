package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"movieReco/domain"
	"movieReco/pkg/logger"
)

var (
	ErrInvalidFeedback = errors.New("feedback_type is required")
	ErrAlreadyRecorded = errors.New("click already recorded")
)

// ---- Repository interfaces ----

type Repository interface {
	Save(ctx context.Context, ev *domain.FeedbackEvent) error
	FindAll(ctx context.Context) ([]domain.FeedbackEvent, error)
	ExistsByKind(ctx context.Context, userID uint, itemID int64, kind domain.FeedbackKind) (bool, error)
}

type Trainer interface {
	Retrain(ctx context.Context, events []domain.FeedbackEvent) error
}

type RewardLedger interface {
	RecordReward(itemID int64, reward float64)
	Reset()
}

// Reducer persists feedback, credits the exploration ledger and schedules
// collaborative retrains. Bursts of submissions collapse into one retrain over
// the full history, so the model lags the log by at most one retrain.
type Reducer struct {
	repo    Repository
	trainer Trainer
	ledger  RewardLedger

	signal    chan struct{}
	requested atomic.Uint64

	mu        sync.Mutex
	completed uint64
	lastErr   error
	changed   chan struct{}
}

func NewReducer(repo Repository, trainer Trainer, ledger RewardLedger) *Reducer {
	return &Reducer{
		repo:    repo,
		trainer: trainer,
		ledger:  ledger,
		signal:  make(chan struct{}, 1),
		changed: make(chan struct{}),
	}
}

// Submit records one event and returns its generation. WaitRetrained(gen)
// blocks until a retrain that includes the event has finished.
func (r *Reducer) Submit(ctx context.Context, ev domain.FeedbackEvent) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	ev.Kind = domain.ParseFeedbackKind(string(ev.Kind))
	if ev.Kind == "" {
		return 0, ErrInvalidFeedback
	}

	if err := r.repo.Save(ctx, &ev); err != nil {
		return 0, fmt.Errorf("failed to save feedback: %w", err)
	}

	reward := RewardForEvent(ev)
	r.ledger.RecordReward(ev.ItemID, reward)
	FeedbackEventsTotal.WithLabelValues(kindLabel(ev.Kind)).Inc()

	gen := r.requested.Add(1)
	select {
	case r.signal <- struct{}{}:
	default:
		// a retrain is already pending and will read this event
	}

	logger.Debug("feedback_submitted",
		"user_id", ev.UserID,
		"item_id", ev.ItemID,
		"kind", ev.Kind,
		"reward", reward,
		"generation", gen,
	)
	return gen, nil
}

// TrackClick records a click once per (user, item).
func (r *Reducer) TrackClick(ctx context.Context, userID uint, itemID int64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context error: %w", err)
	}

	exists, err := r.repo.ExistsByKind(ctx, userID, itemID, domain.FeedbackClick)
	if err != nil {
		return 0, fmt.Errorf("failed to check click: %w", err)
	}
	if exists {
		return 0, ErrAlreadyRecorded
	}

	return r.Submit(ctx, domain.FeedbackEvent{UserID: userID, ItemID: itemID, Kind: domain.FeedbackClick})
}

// Run consumes retrain requests until ctx is done. Only one Run may be active.
func (r *Reducer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.signal:
			target := r.requested.Load()
			err := r.retrain(ctx)
			if err != nil {
				RetrainsTotal.WithLabelValues("failure").Inc()
				logger.Error("collab retrain failed", "generation", target, "error", err)
			} else {
				RetrainsTotal.WithLabelValues("success").Inc()
			}
			r.complete(target, err)
		}
	}
}

func (r *Reducer) retrain(ctx context.Context) error {
	events, err := r.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}
	return r.trainer.Retrain(ctx, events)
}

func (r *Reducer) complete(gen uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen > r.completed {
		r.completed = gen
	}
	r.lastErr = err
	close(r.changed)
	r.changed = make(chan struct{})
}

// WaitRetrained blocks until the retrain covering generation gen has finished
// and returns that retrain's error.
func (r *Reducer) WaitRetrained(ctx context.Context, gen uint64) error {
	for {
		r.mu.Lock()
		if r.completed >= gen {
			err := r.lastErr
			r.mu.Unlock()
			return err
		}
		ch := r.changed
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Pending reports how many submitted generations are not yet reflected in the model.
func (r *Reducer) Pending() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requested.Load() - r.completed
}

// Bootstrap rebuilds the ledger and the model from the stored feedback log.
func (r *Reducer) Bootstrap(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	events, err := r.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feedback: %w", err)
	}

	r.ledger.Reset()
	for _, ev := range events {
		r.ledger.RecordReward(ev.ItemID, RewardForEvent(ev))
	}

	if err := r.trainer.Retrain(ctx, events); err != nil {
		return fmt.Errorf("failed to train from feedback log: %w", err)
	}

	logger.Info("feedback state restored", "events", len(events))
	return nil
}

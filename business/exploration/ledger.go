package exploration

import "sync"

// rewardEpsilon keeps the average defined for items that were never shown.
const rewardEpsilon = 1e-5

// Entry is the accumulated reward state of one item.
type Entry struct {
	Shown  int64   `json:"shown"`
	Reward float64 `json:"reward"`
}

func (e Entry) Average() float64 {
	return e.Reward / (float64(e.Shown) + rewardEpsilon)
}

// Ledger tracks per-item exploration rewards. Entries are created lazily and only grow.
type Ledger struct {
	mu      sync.RWMutex
	entries map[int64]*Entry
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[int64]*Entry)}
}

// RecordReward counts one showing of item with the given reward, clamped to [0,1].
func (l *Ledger) RecordReward(itemID int64, reward float64) {
	if reward < 0 {
		reward = 0
	} else if reward > 1 {
		reward = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[itemID]
	if !ok {
		e = &Entry{}
		l.entries[itemID] = e
	}
	e.Shown++
	e.Reward += reward
}

// AverageReward is reward/(shown+1e-5), or 0 for an unseen item.
func (l *Ledger) AverageReward(itemID int64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[itemID]
	if !ok {
		return 0
	}
	return e.Average()
}

func (l *Ledger) Entry(itemID int64) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[itemID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset drops every entry. Used before replaying the feedback log.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[int64]*Entry)
}

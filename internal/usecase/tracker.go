// File: internal/usecase/tracker.go
package usecase

import (
	"sync"

	"car-deal-negotiator/internal/domain/model"
)

// SessionTracker owns the NegotiationState for one session. Mutators swap in
// a new immutable snapshot and notify subscribers; reads always get an
// independent copy, so overlapping network continuations can never observe a
// half-applied update.
type SessionTracker struct {
	mu    sync.Mutex
	state model.NegotiationState
	subs  map[int]chan model.NegotiationState
	nextS int
}

func NewSessionTracker(maxRounds int) *SessionTracker {
	return &SessionTracker{
		state: model.NewNegotiationState(maxRounds),
		subs:  make(map[int]chan model.NegotiationState),
	}
}

// State returns a snapshot with its own copy of the message slice.
func (t *SessionTracker) State() model.NegotiationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return snapshot(t.state)
}

func snapshot(s model.NegotiationState) model.NegotiationState {
	if len(s.Messages) > 0 {
		msgs := make([]model.NegotiationMessage, len(s.Messages))
		copy(msgs, s.Messages)
		s.Messages = msgs
	}
	return s
}

// Subscribe returns a channel that receives a snapshot after every mutation,
// plus a cancel func. Slow consumers drop intermediate snapshots instead of
// blocking mutators.
func (t *SessionTracker) Subscribe() (<-chan model.NegotiationState, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextS
	t.nextS++
	ch := make(chan model.NegotiationState, 1)
	t.subs[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(c)
		}
	}
}

// apply runs a pure transition over the current state and publishes the
// result. Callers must not hold the lock.
func (t *SessionTracker) apply(fn func(model.NegotiationState) model.NegotiationState) {
	t.mu.Lock()
	t.state = fn(t.state)
	snap := snapshot(t.state)
	for _, ch := range t.subs {
		select {
		case ch <- snap:
		default:
			// replace the stale pending snapshot with the fresh one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	t.mu.Unlock()
}

func (t *SessionTracker) SetSessionID(id string) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.SessionID = id; return s })
}

func (t *SessionTracker) SetStatus(status model.SessionStatus) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.Status = status; return s })
}

func (t *SessionTracker) SetLoading(v bool) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.IsLoading = v; return s })
}

func (t *SessionTracker) SetError(msg string) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.Error = msg; return s })
}

func (t *SessionTracker) SetTyping(v bool) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.IsTyping = v; return s })
}

func (t *SessionTracker) SetCurrentRound(round int) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.CurrentRound = round; return s })
}

func (t *SessionTracker) SetMaxRounds(n int) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { s.MaxRounds = n; return s })
}

// SetMessages replaces the sequence, deduplicated by id (first wins).
func (t *SessionTracker) SetMessages(msgs []model.NegotiationMessage) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { return s.WithMessages(msgs) })
}

// AddMessages appends and deduplicates across the combined sequence, so
// repeated or overlapping batches are idempotent.
func (t *SessionTracker) AddMessages(msgs []model.NegotiationMessage) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { return s.WithAddedMessages(msgs) })
}

// UpdateFromNextRound folds one next-round response into the state. The
// response metadata already rides on the appended agent message, so it is
// not stored separately.
func (t *SessionTracker) UpdateFromNextRound(_ *model.MessageMetadata, msgs []model.NegotiationMessage, round int) {
	t.apply(func(s model.NegotiationState) model.NegotiationState { return s.WithNextRound(msgs, round) })
}

// ResetSession discards the session and returns to the empty idle state.
func (t *SessionTracker) ResetSession() {
	t.apply(func(s model.NegotiationState) model.NegotiationState {
		return model.NewNegotiationState(s.MaxRounds)
	})
}

// Derived, recomputed views.

func (t *SessionTracker) LatestPrice() (float64, bool) { return t.State().LatestPrice() }

func (t *SessionTracker) FinancingOptions() []model.FinancingOption {
	return t.State().FinancingOptions()
}

func (t *SessionTracker) CashSavings() (float64, bool) { return t.State().CashSavings() }

func (t *SessionTracker) OfferStatus(targetPrice *float64) model.CurrentOfferStatus {
	return t.State().OfferStatus(targetPrice)
}

package model

// OfferFlowStatus describes whose move it is, derived from the session
// status and the most recent offer.
type OfferFlowStatus string

const (
	OfferFlowWaiting   OfferFlowStatus = "waiting_for_response"
	OfferFlowUserTurn  OfferFlowStatus = "user_turn"
	OfferFlowCompleted OfferFlowStatus = "completed"
	OfferFlowCancelled OfferFlowStatus = "cancelled"
)

// TargetComparison compares the latest offer against the buyer's target
// price.
type TargetComparison struct {
	Amount        float64 `json:"amount"`
	Percentage    float64 `json:"percentage"`
	IsAboveTarget bool    `json:"is_above_target"`
}

// CurrentOfferStatus is a fully derived snapshot of where the negotiation
// stands. Recomputed on demand, never stored.
type CurrentOfferStatus struct {
	LastOffer          *OfferInfo        `json:"last_offer"`
	Status             OfferFlowStatus   `json:"status"`
	ComparisonToTarget *TargetComparison `json:"comparison_to_target"`
	OfferHistory       []OfferInfo       `json:"offer_history"`
}

// NegotiationState is the single source of truth for one negotiation
// session. Values are treated as immutable snapshots: every transition
// returns a new state and never mutates the message slice in place.
type NegotiationState struct {
	SessionID    string
	Status       SessionStatus
	Messages     []NegotiationMessage
	IsLoading    bool
	Error        string
	IsTyping     bool
	CurrentRound int
	MaxRounds    int
}

// NewNegotiationState returns the empty idle state a session starts from.
func NewNegotiationState(maxRounds int) NegotiationState {
	return NegotiationState{Status: SessionIdle, MaxRounds: maxRounds}
}

// DedupeMessages keeps the first occurrence of each message id, preserving
// relative order. The input slice is not modified.
func DedupeMessages(msgs []NegotiationMessage) []NegotiationMessage {
	if len(msgs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(msgs))
	out := make([]NegotiationMessage, 0, len(msgs))
	for _, m := range msgs {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// WithMessages replaces the message sequence after deduplicating by id.
func (s NegotiationState) WithMessages(msgs []NegotiationMessage) NegotiationState {
	s.Messages = DedupeMessages(msgs)
	return s
}

// WithAddedMessages appends msgs and deduplicates across the combined
// sequence, so overlapping poll batches never produce duplicate entries.
func (s NegotiationState) WithAddedMessages(msgs []NegotiationMessage) NegotiationState {
	combined := make([]NegotiationMessage, 0, len(s.Messages)+len(msgs))
	combined = append(combined, s.Messages...)
	combined = append(combined, msgs...)
	s.Messages = DedupeMessages(combined)
	return s
}

// WithNextRound folds a next-round response into the state: bumps the round,
// merges the new messages and clears the loading/typing flags.
func (s NegotiationState) WithNextRound(msgs []NegotiationMessage, round int) NegotiationState {
	s = s.WithAddedMessages(msgs)
	s.CurrentRound = round
	s.IsLoading = false
	s.IsTyping = false
	return s
}

// LatestPrice scans messages newest to oldest and returns the first parsable
// price found in the metadata.
func (s NegotiationState) LatestPrice() (float64, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if v, ok := s.Messages[i].Metadata.OfferPrice(); ok {
			return v, true
		}
	}
	return 0, false
}

// FinancingOptions returns the valid options from the most recent message
// that yields any, or nil.
func (s NegotiationState) FinancingOptions() []FinancingOption {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if opts := s.Messages[i].Metadata.ValidFinancingOptions(); len(opts) > 0 {
			return opts
		}
	}
	return nil
}

// CashSavings returns the most recent cash_savings figure, if any message
// carries one.
func (s NegotiationState) CashSavings() (float64, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if m := s.Messages[i].Metadata; m != nil {
			if v, ok := m.CashSavings.Float(); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// OfferHistory lists every priced message in chronological order.
func (s NegotiationState) OfferHistory() []OfferInfo {
	var history []OfferInfo
	for _, m := range s.Messages {
		if offer, ok := m.Offer(); ok {
			history = append(history, offer)
		}
	}
	return history
}

const offerHistoryLimit = 5

// OfferStatus derives the current offer standing. targetPrice may be nil
// when the buyer has not set one; the comparison is then omitted.
func (s NegotiationState) OfferStatus(targetPrice *float64) CurrentOfferStatus {
	history := s.OfferHistory()

	var last *OfferInfo
	if len(history) > 0 {
		o := history[len(history)-1]
		last = &o
	}

	var flow OfferFlowStatus
	switch {
	case s.Status == SessionCompleted:
		flow = OfferFlowCompleted
	case s.Status == SessionCancelled:
		flow = OfferFlowCancelled
	case last == nil || last.Source == OfferSourceAI || last.Source == OfferSourceDealer:
		flow = OfferFlowUserTurn
	default:
		flow = OfferFlowWaiting
	}

	var cmp *TargetComparison
	if targetPrice != nil && last != nil && *targetPrice != 0 {
		amount := last.Price - *targetPrice
		cmp = &TargetComparison{
			Amount:        amount,
			Percentage:    amount / *targetPrice * 100,
			IsAboveTarget: amount > 0,
		}
	}

	if len(history) > offerHistoryLimit {
		history = history[len(history)-offerHistoryLimit:]
	}

	return CurrentOfferStatus{
		LastOffer:          last,
		Status:             flow,
		ComparisonToTarget: cmp,
		OfferHistory:       history,
	}
}

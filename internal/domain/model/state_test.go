package model

import (
	"fmt"
	"testing"
	"time"
)

func msg(id string, role MessageRole, round int, meta *MessageMetadata) NegotiationMessage {
	return NegotiationMessage{
		ID:          id,
		SessionID:   "s1",
		Role:        role,
		Content:     "msg " + id,
		RoundNumber: round,
		Metadata:    meta,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(round) * time.Minute),
	}
}

func ids(msgs []NegotiationMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func sameIDs(a []NegotiationMessage, want ...string) bool {
	got := ids(a)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestDedupeIdempotence(t *testing.T) {
	batch := []NegotiationMessage{
		msg("a", RoleAgent, 1, nil),
		msg("b", RoleUser, 2, nil),
		msg("a", RoleAgent, 1, nil),
		msg("c", RoleDealerSim, 3, nil),
		msg("b", RoleUser, 2, nil),
	}

	s := NewNegotiationState(5).WithMessages(batch)
	if !sameIDs(s.Messages, "a", "b", "c") {
		t.Fatalf("dedupe failed: %v", ids(s.Messages))
	}

	// Applying the same batch any number of times stays stable.
	for i := 0; i < 3; i++ {
		s = s.WithAddedMessages(batch)
	}
	if !sameIDs(s.Messages, "a", "b", "c") {
		t.Fatalf("repeated merges not idempotent: %v", ids(s.Messages))
	}
}

func TestMergeAssociativity(t *testing.T) {
	a := []NegotiationMessage{msg("a", RoleAgent, 1, nil), msg("b", RoleUser, 2, nil)}
	b := []NegotiationMessage{msg("b", RoleUser, 2, nil), msg("c", RoleDealerSim, 3, nil)}

	incremental := NewNegotiationState(5).WithAddedMessages(a).WithAddedMessages(b)
	oneShot := NewNegotiationState(5).WithMessages(append(append([]NegotiationMessage{}, a...), b...))

	if fmt.Sprint(ids(incremental.Messages)) != fmt.Sprint(ids(oneShot.Messages)) {
		t.Fatalf("addMessages(A);addMessages(B) = %v, setMessages(A++B) = %v",
			ids(incremental.Messages), ids(oneShot.Messages))
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	base := NewNegotiationState(5).WithMessages([]NegotiationMessage{msg("a", RoleAgent, 1, nil)})
	before := ids(base.Messages)

	_ = base.WithAddedMessages([]NegotiationMessage{msg("b", RoleUser, 2, nil)})
	if !sameIDs(base.Messages, before...) {
		t.Fatal("WithAddedMessages mutated the prior snapshot")
	}
}

func TestLatestPrice(t *testing.T) {
	s := NewNegotiationState(5).WithMessages([]NegotiationMessage{
		msg("m1", RoleUser, 1, &MessageMetadata{Price: NewAmount(100)}),
		msg("m2", RoleAgent, 2, &MessageMetadata{SuggestedPrice: NewAmount(200)}),
	})
	if v, ok := s.LatestPrice(); !ok || v != 200 {
		t.Fatalf("latest price = %v %v, want 200", v, ok)
	}

	empty := NewNegotiationState(5).WithMessages([]NegotiationMessage{
		msg("m1", RoleAgent, 1, nil),
		msg("m2", RoleUser, 2, &MessageMetadata{}),
	})
	if _, ok := empty.LatestPrice(); ok {
		t.Fatal("no priced messages should yield no latest price")
	}
}

func TestFinancingOptionsSelector(t *testing.T) {
	valid := FinancingOption{
		LoanAmount:             NewAmount(20000),
		MonthlyPaymentEstimate: NewAmount(420),
		LoanTermMonths:         NewAmount(48),
	}
	invalid := FinancingOption{LoanAmount: NewAmount(20000)}

	s := NewNegotiationState(5).WithMessages([]NegotiationMessage{
		msg("m1", RoleAgent, 1, &MessageMetadata{FinancingOptions: []FinancingOption{valid, valid}}),
		msg("m2", RoleAgent, 2, &MessageMetadata{FinancingOptions: []FinancingOption{invalid, valid}}),
	})
	opts := s.FinancingOptions()
	if len(opts) != 1 {
		t.Fatalf("want the most recent message's valid options only, got %d", len(opts))
	}

	// A message whose options are all invalid is skipped in favor of an older one.
	s2 := NewNegotiationState(5).WithMessages([]NegotiationMessage{
		msg("m1", RoleAgent, 1, &MessageMetadata{FinancingOptions: []FinancingOption{valid}}),
		msg("m2", RoleAgent, 2, &MessageMetadata{FinancingOptions: []FinancingOption{invalid}}),
	})
	if got := s2.FinancingOptions(); len(got) != 1 {
		t.Fatalf("expected fallback to older message's options, got %d", len(got))
	}

	if got := NewNegotiationState(5).FinancingOptions(); got != nil {
		t.Fatalf("empty state should yield nil, got %v", got)
	}
}

func TestCashSavings(t *testing.T) {
	s := NewNegotiationState(5).WithMessages([]NegotiationMessage{
		msg("m1", RoleAgent, 1, &MessageMetadata{CashSavings: NewAmount(500)}),
		msg("m2", RoleAgent, 2, nil),
		msg("m3", RoleAgent, 3, &MessageMetadata{CashSavings: NewAmount(1200)}),
	})
	if v, ok := s.CashSavings(); !ok || v != 1200 {
		t.Fatalf("cash savings = %v %v, want 1200", v, ok)
	}
}

func TestOfferStatusDerivation(t *testing.T) {
	dealerOffer := msg("d1", RoleDealerSim, 1, &MessageMetadata{SuggestedPrice: NewAmount(23000)})
	aiOffer := msg("a1", RoleAgent, 2, &MessageMetadata{SuggestedPrice: NewAmount(22500)})
	userOffer := msg("u1", RoleUser, 3, &MessageMetadata{CounterOffer: NewAmount(21000)})

	base := NewNegotiationState(5)
	base.Status = SessionActive

	t.Run("ai offer means user turn", func(t *testing.T) {
		s := base.WithMessages([]NegotiationMessage{aiOffer})
		if got := s.OfferStatus(nil).Status; got != OfferFlowUserTurn {
			t.Fatalf("status = %q, want user_turn", got)
		}
	})

	t.Run("dealer offer means user turn", func(t *testing.T) {
		s := base.WithMessages([]NegotiationMessage{dealerOffer})
		if got := s.OfferStatus(nil).Status; got != OfferFlowUserTurn {
			t.Fatalf("status = %q, want user_turn", got)
		}
	})

	t.Run("user offer means waiting", func(t *testing.T) {
		s := base.WithMessages([]NegotiationMessage{aiOffer, userOffer})
		if got := s.OfferStatus(nil).Status; got != OfferFlowWaiting {
			t.Fatalf("status = %q, want waiting_for_response", got)
		}
	})

	t.Run("no offers means user turn", func(t *testing.T) {
		if got := base.OfferStatus(nil).Status; got != OfferFlowUserTurn {
			t.Fatalf("status = %q, want user_turn", got)
		}
	})

	t.Run("completed wins over offers", func(t *testing.T) {
		s := base.WithMessages([]NegotiationMessage{userOffer})
		s.Status = SessionCompleted
		if got := s.OfferStatus(nil).Status; got != OfferFlowCompleted {
			t.Fatalf("status = %q, want completed", got)
		}
	})

	t.Run("cancelled wins over offers", func(t *testing.T) {
		s := base.WithMessages([]NegotiationMessage{dealerOffer})
		s.Status = SessionCancelled
		if got := s.OfferStatus(nil).Status; got != OfferFlowCancelled {
			t.Fatalf("status = %q, want cancelled", got)
		}
	})
}

func TestComparisonToTarget(t *testing.T) {
	target := 20000.0
	base := NewNegotiationState(5)
	base.Status = SessionActive

	above := base.WithMessages([]NegotiationMessage{
		msg("m1", RoleDealerSim, 1, &MessageMetadata{SuggestedPrice: NewAmount(22000)}),
	})
	cmp := above.OfferStatus(&target).ComparisonToTarget
	if cmp == nil {
		t.Fatal("comparison should be present")
	}
	if cmp.Amount != 2000 || !cmp.IsAboveTarget {
		t.Fatalf("above-target comparison = %+v", cmp)
	}
	if cmp.Percentage != 10 {
		t.Fatalf("percentage = %v, want 10", cmp.Percentage)
	}

	below := base.WithMessages([]NegotiationMessage{
		msg("m1", RoleDealerSim, 1, &MessageMetadata{SuggestedPrice: NewAmount(18000)}),
	})
	cmp = below.OfferStatus(&target).ComparisonToTarget
	if cmp.Amount != -2000 || cmp.IsAboveTarget {
		t.Fatalf("below-target comparison = %+v", cmp)
	}

	if got := above.OfferStatus(nil).ComparisonToTarget; got != nil {
		t.Fatalf("no target should mean no comparison, got %+v", got)
	}
	if got := base.OfferStatus(&target).ComparisonToTarget; got != nil {
		t.Fatalf("no offer should mean no comparison, got %+v", got)
	}
}

func TestOfferHistoryTruncation(t *testing.T) {
	var msgs []NegotiationMessage
	for i := 1; i <= 8; i++ {
		msgs = append(msgs, msg(fmt.Sprintf("m%d", i), RoleDealerSim, i,
			&MessageMetadata{SuggestedPrice: NewAmount(float64(25000 - i*100))}))
	}
	s := NewNegotiationState(10).WithMessages(msgs)
	s.Status = SessionActive

	status := s.OfferStatus(nil)
	if len(status.OfferHistory) != 5 {
		t.Fatalf("history length = %d, want 5", len(status.OfferHistory))
	}
	// Most recent 5, chronological: rounds 4..8.
	if status.OfferHistory[0].RoundNumber != 4 || status.OfferHistory[4].RoundNumber != 8 {
		t.Fatalf("history window wrong: first round %d, last round %d",
			status.OfferHistory[0].RoundNumber, status.OfferHistory[4].RoundNumber)
	}
	if status.LastOffer == nil || status.LastOffer.Price != 25000-800 {
		t.Fatalf("last offer = %+v", status.LastOffer)
	}
}

func TestWithNextRoundClearsFlags(t *testing.T) {
	s := NewNegotiationState(5)
	s.IsLoading = true
	s.IsTyping = true

	s = s.WithNextRound([]NegotiationMessage{msg("a", RoleAgent, 2, nil)}, 2)
	if s.IsLoading || s.IsTyping {
		t.Fatal("next round should clear loading and typing flags")
	}
	if s.CurrentRound != 2 || !sameIDs(s.Messages, "a") {
		t.Fatalf("unexpected state after next round: round=%d msgs=%v", s.CurrentRound, ids(s.Messages))
	}
}

package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAmountUnmarshal(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{name: "number", in: `{"v": 23500}`, want: 23500, wantOK: true},
		{name: "float", in: `{"v": 23500.5}`, want: 23500.5, wantOK: true},
		{name: "numeric string", in: `{"v": "21900"}`, want: 21900, wantOK: true},
		{name: "padded string", in: `{"v": " 100 "}`, want: 100, wantOK: true},
		{name: "null", in: `{"v": null}`, wantOK: false},
		{name: "absent", in: `{}`, wantOK: false},
		{name: "garbage", in: `{"v": "a lot"}`, wantErr: true},
		{name: "object", in: `{"v": {}}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				V *Amount `json:"v"`
			}
			err := json.Unmarshal([]byte(tc.in), &out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got value %v", out.V)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, ok := out.V.Float()
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("value = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFinancingOptionValid(t *testing.T) {
	full := FinancingOption{
		LoanAmount:             NewAmount(20000),
		MonthlyPaymentEstimate: NewAmount(450),
		LoanTermMonths:         NewAmount(48),
	}
	if !full.Valid() {
		t.Fatal("option with all required fields should be valid")
	}
	missingTerm := full
	missingTerm.LoanTermMonths = nil
	if missingTerm.Valid() {
		t.Fatal("option missing loan_term_months should be invalid")
	}
	if (FinancingOption{}).Valid() {
		t.Fatal("empty option should be invalid")
	}
}

func TestOfferPricePriority(t *testing.T) {
	meta := &MessageMetadata{
		SuggestedPrice: NewAmount(23500),
		CounterOffer:   NewAmount(24000),
		Price:          NewAmount(25000),
	}
	if v, ok := meta.OfferPrice(); !ok || v != 23500 {
		t.Fatalf("suggested_price should win, got %v %v", v, ok)
	}
	meta.SuggestedPrice = nil
	if v, _ := meta.OfferPrice(); v != 24000 {
		t.Fatalf("counter_offer should be next, got %v", v)
	}
	meta.CounterOffer = nil
	if v, _ := meta.OfferPrice(); v != 25000 {
		t.Fatalf("price should be last, got %v", v)
	}
	meta.Price = nil
	if _, ok := meta.OfferPrice(); ok {
		t.Fatal("no price fields should yield no offer")
	}
	var nilMeta *MessageMetadata
	if _, ok := nilMeta.OfferPrice(); ok {
		t.Fatal("nil metadata should yield no offer")
	}
}

func TestOfferSourceForRole(t *testing.T) {
	cases := map[MessageRole]OfferSource{
		RoleUser:           OfferSourceUser,
		RoleDealerSim:      OfferSourceDealer,
		RoleAgent:          OfferSourceAI,
		MessageRole("bot"): OfferSourceAI, // unmapped roles fall back to ai
	}
	for role, want := range cases {
		if got := OfferSourceForRole(role); got != want {
			t.Errorf("role %q -> %q, want %q", role, got, want)
		}
	}
}

func TestMessageOffer(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := NegotiationMessage{
		ID:          "m1",
		Role:        RoleDealerSim,
		RoundNumber: 2,
		Metadata:    &MessageMetadata{SuggestedPrice: NewAmount(22800)},
		CreatedAt:   ts,
	}
	offer, ok := msg.Offer()
	if !ok {
		t.Fatal("priced message should produce an offer")
	}
	if offer.Price != 22800 || offer.Source != OfferSourceDealer || offer.MessageID != "m1" ||
		offer.RoundNumber != 2 || !offer.Timestamp.Equal(ts) {
		t.Fatalf("unexpected offer: %+v", offer)
	}

	if _, ok := (NegotiationMessage{ID: "m2"}).Offer(); ok {
		t.Fatal("unpriced message should not produce an offer")
	}
}

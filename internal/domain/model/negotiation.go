package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAgent     MessageRole = "agent"
	RoleDealerSim MessageRole = "dealer_sim"
)

type OfferSource string

const (
	OfferSourceUser   OfferSource = "user"
	OfferSourceDealer OfferSource = "dealer"
	OfferSourceAI     OfferSource = "ai"
)

// OfferSourceForRole maps a message role to the party an offer is attributed
// to. Unknown roles fall back to the AI agent.
func OfferSourceForRole(role MessageRole) OfferSource {
	switch role {
	case RoleUser:
		return OfferSourceUser
	case RoleDealerSim:
		return OfferSourceDealer
	default:
		return OfferSourceAI
	}
}

// Amount is a price-like number that backends sometimes serialize as a JSON
// number and sometimes as a numeric string. Anything unparsable is rejected
// at decode time so downstream code only ever sees valid numbers.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

func (a *Amount) Float() (float64, bool) {
	if a == nil {
		return 0, false
	}
	return float64(*a), true
}

func NewAmount(f float64) *Amount {
	a := Amount(f)
	return &a
}

// FinancingOption is one loan proposal attached to a negotiation message.
// LoanAmount, MonthlyPaymentEstimate and LoanTermMonths are mandatory for the
// option to be considered valid.
type FinancingOption struct {
	LoanAmount             *Amount `json:"loan_amount"`
	MonthlyPaymentEstimate *Amount `json:"monthly_payment_estimate"`
	LoanTermMonths         *Amount `json:"loan_term_months"`
	EstimatedAPR           *Amount `json:"estimated_apr,omitempty"`
	TotalCost              *Amount `json:"total_cost,omitempty"`
	LenderName             string  `json:"lender_name,omitempty"`
}

func (f FinancingOption) Valid() bool {
	return f.LoanAmount != nil && f.MonthlyPaymentEstimate != nil && f.LoanTermMonths != nil
}

// MessageMetadata is the set of well-known optional keys a negotiation
// message may carry. It replaces the backend's open map with a typed record
// validated at the ingestion boundary.
type MessageMetadata struct {
	SuggestedPrice   *Amount           `json:"suggested_price,omitempty"`
	CounterOffer     *Amount           `json:"counter_offer,omitempty"`
	Price            *Amount           `json:"price,omitempty"`
	AskingPrice      *Amount           `json:"asking_price,omitempty"`
	FinancingOptions []FinancingOption `json:"financing_options,omitempty"`
	CashSavings      *Amount           `json:"cash_savings,omitempty"`
}

// OfferPrice returns the message's priced proposal, checking
// suggested_price, counter_offer and price in that priority order.
func (m *MessageMetadata) OfferPrice() (float64, bool) {
	if m == nil {
		return 0, false
	}
	if v, ok := m.SuggestedPrice.Float(); ok {
		return v, true
	}
	if v, ok := m.CounterOffer.Float(); ok {
		return v, true
	}
	return m.Price.Float()
}

// ValidFinancingOptions filters out entries missing any of the three
// required numeric fields. Returns nil when nothing valid remains.
func (m *MessageMetadata) ValidFinancingOptions() []FinancingOption {
	if m == nil || len(m.FinancingOptions) == 0 {
		return nil
	}
	var out []FinancingOption
	for _, f := range m.FinancingOptions {
		if f.Valid() {
			out = append(out, f)
		}
	}
	return out
}

// NegotiationMessage is one turn in a negotiation session. Immutable once
// created; identity is ID.
type NegotiationMessage struct {
	ID          string           `json:"id"`
	SessionID   string           `json:"session_id"`
	Role        MessageRole      `json:"role"`
	Content     string           `json:"content"`
	RoundNumber int              `json:"round_number"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// OfferInfo is a derived view of a priced message; never persisted.
type OfferInfo struct {
	Price       float64     `json:"price"`
	Source      OfferSource `json:"source"`
	Timestamp   time.Time   `json:"timestamp"`
	RoundNumber int         `json:"round_number"`
	MessageID   string      `json:"message_id"`
}

// Offer extracts an OfferInfo from the message, if it carries a parsable
// price.
func (m NegotiationMessage) Offer() (OfferInfo, bool) {
	price, ok := m.Metadata.OfferPrice()
	if !ok {
		return OfferInfo{}, false
	}
	return OfferInfo{
		Price:       price,
		Source:      OfferSourceForRole(m.Role),
		Timestamp:   m.CreatedAt,
		RoundNumber: m.RoundNumber,
		MessageID:   m.ID,
	}, true
}

// NegotiationSession is the backend's full view of one session, as returned
// by the session fetch endpoint.
type NegotiationSession struct {
	SessionID       string               `json:"session_id"`
	DealID          string               `json:"deal_id"`
	Status          SessionStatus        `json:"status"`
	CurrentRound    int                  `json:"current_round"`
	MaxRounds       int                  `json:"max_rounds"`
	UserTargetPrice float64              `json:"user_target_price"`
	Messages        []NegotiationMessage `json:"messages"`
}

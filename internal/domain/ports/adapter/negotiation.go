package adapter

import (
	"context"

	"car-deal-negotiator/internal/domain/model"
)

type UserAction string

const (
	ActionConfirm UserAction = "confirm"
	ActionReject  UserAction = "reject"
	ActionCounter UserAction = "counter"
)

// RoundResult is what the backend returns for the create-session and
// next-round calls: the new session coordinates plus one agent turn.
type RoundResult struct {
	SessionID    string
	Status       model.SessionStatus
	CurrentRound int
	AgentMessage model.NegotiationMessage
}

// NegotiationService is the port to the deal-negotiation backend. The HTTP
// client implements it; tests substitute in-memory fakes.
type NegotiationService interface {
	CreateSession(ctx context.Context, dealID string, targetPrice float64, strategy string) (*RoundResult, error)
	NextRound(ctx context.Context, sessionID string, action UserAction, counterOffer *float64) (*RoundResult, error)
	FetchSession(ctx context.Context, sessionID string) (*model.NegotiationSession, error)
	LenderRecommendations(ctx context.Context, sessionID string, loanTermMonths int, creditScoreRange string) ([]model.FinancingOption, error)
	SendChat(ctx context.Context, sessionID, content string) (*model.NegotiationMessage, error)
	SendDealerInfo(ctx context.Context, sessionID, info string) (*model.NegotiationMessage, error)
}

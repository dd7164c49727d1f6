// File: internal/infra/api/negotiation.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"car-deal-negotiator/internal/domain/model"
	"car-deal-negotiator/internal/domain/ports/adapter"
)

// Compile-time assurance the client satisfies the port
var _ adapter.NegotiationService = (*Client)(nil)

type createNegotiationRequest struct {
	DealID          string  `json:"deal_id"`
	UserTargetPrice float64 `json:"user_target_price"`
	Strategy        string  `json:"strategy,omitempty"`
}

type nextRoundRequest struct {
	UserAction   adapter.UserAction `json:"user_action"`
	CounterOffer *float64           `json:"counter_offer,omitempty"`
}

type roundResponse struct {
	SessionID    string                 `json:"session_id"`
	Status       model.SessionStatus    `json:"status"`
	CurrentRound int                    `json:"current_round"`
	AgentMessage string                 `json:"agent_message"`
	Metadata     *model.MessageMetadata `json:"metadata,omitempty"`
}

// AgentMessageID is the deterministic id minted for an agent turn delivered
// by a round response. Using the session id and round keeps a later
// full-session merge from duplicating the turn.
func AgentMessageID(sessionID string, round int) string {
	return fmt.Sprintf("%s:r%d:agent", sessionID, round)
}

func (r roundResponse) toResult() *adapter.RoundResult {
	return &adapter.RoundResult{
		SessionID:    r.SessionID,
		Status:       r.Status,
		CurrentRound: r.CurrentRound,
		AgentMessage: model.NegotiationMessage{
			ID:          AgentMessageID(r.SessionID, r.CurrentRound),
			SessionID:   r.SessionID,
			Role:        model.RoleAgent,
			Content:     r.AgentMessage,
			RoundNumber: r.CurrentRound,
			Metadata:    r.Metadata,
			CreatedAt:   time.Now(),
		},
	}
}

func (c *Client) CreateSession(ctx context.Context, dealID string, targetPrice float64, strategy string) (*adapter.RoundResult, error) {
	body := createNegotiationRequest{DealID: dealID, UserTargetPrice: targetPrice, Strategy: strategy}
	var resp roundResponse
	if err := c.doJSON(ctx, "negotiation.create", http.MethodPost, "/api/v1/negotiations/", body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

func (c *Client) NextRound(ctx context.Context, sessionID string, action adapter.UserAction, counterOffer *float64) (*adapter.RoundResult, error) {
	body := nextRoundRequest{UserAction: action, CounterOffer: counterOffer}
	var resp roundResponse
	path := "/api/v1/negotiations/" + url.PathEscape(sessionID) + "/next"
	if err := c.doJSON(ctx, "negotiation.next", http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.toResult(), nil
}

func (c *Client) FetchSession(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	var out model.NegotiationSession
	path := "/api/v1/negotiations/" + url.PathEscape(sessionID)
	if err := c.doJSON(ctx, "negotiation.get", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LenderRecommendations(ctx context.Context, sessionID string, loanTermMonths int, creditScoreRange string) ([]model.FinancingOption, error) {
	q := url.Values{}
	if loanTermMonths > 0 {
		q.Set("loan_term_months", strconv.Itoa(loanTermMonths))
	}
	if creditScoreRange != "" {
		q.Set("credit_score_range", creditScoreRange)
	}
	path := "/api/v1/negotiations/" + url.PathEscape(sessionID) + "/lender-recommendations"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out struct {
		Recommendations []model.FinancingOption `json:"recommendations"`
	}
	if err := c.doJSON(ctx, "negotiation.lenders", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (c *Client) SendChat(ctx context.Context, sessionID, content string) (*model.NegotiationMessage, error) {
	var out model.NegotiationMessage
	path := "/api/v1/negotiations/" + url.PathEscape(sessionID) + "/chat"
	if err := c.doJSON(ctx, "negotiation.chat", http.MethodPost, path, sendMessageRequest{Content: content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendDealerInfo(ctx context.Context, sessionID, info string) (*model.NegotiationMessage, error) {
	var out model.NegotiationMessage
	path := "/api/v1/negotiations/" + url.PathEscape(sessionID) + "/dealer-info"
	if err := c.doJSON(ctx, "negotiation.dealerinfo", http.MethodPost, path, sendMessageRequest{Content: info}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

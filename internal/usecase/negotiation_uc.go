// File: internal/usecase/negotiation_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"car-deal-negotiator/internal/domain"
	"car-deal-negotiator/internal/domain/model"
	"car-deal-negotiator/internal/domain/ports/adapter"
	derror "car-deal-negotiator/internal/error"
	"car-deal-negotiator/internal/infra/fetchguard"
	"car-deal-negotiator/internal/infra/logging"
	"car-deal-negotiator/internal/infra/metrics"
)

// Compile-time check
var _ NegotiationUseCase = (*negotiationUC)(nil)

type NegotiationUseCase interface {
	Start(ctx context.Context, dealID string, targetPrice float64, strategy string) error
	Advance(ctx context.Context, action adapter.UserAction, counterOffer *float64) error
	LoadSession(ctx context.Context, sessionID string) error
	SendChat(ctx context.Context, content string) error
	SendDealerInfo(ctx context.Context, info string) error
	LenderRecommendations(ctx context.Context, loanTermMonths int, creditScoreRange string) ([]model.FinancingOption, error)
	Tracker() *SessionTracker
	Reset()
}

type negotiationUC struct {
	svc     adapter.NegotiationService
	tracker *SessionTracker
	guard   *fetchguard.Guard
	log     *zerolog.Logger
}

func NewNegotiationUseCase(svc adapter.NegotiationService, maxRounds int, logger *zerolog.Logger) *negotiationUC {
	return &negotiationUC{
		svc:     svc,
		tracker: NewSessionTracker(maxRounds),
		guard:   fetchguard.New(),
		log:     logger,
	}
}

func (n *negotiationUC) Tracker() *SessionTracker { return n.tracker }

// fail records a user-readable message on state and propagates the original
// error. Nothing is swallowed.
func (n *negotiationUC) fail(op string, err error) error {
	n.log.Warn().Str("op", op).Err(err).Msg("negotiation call failed")
	n.tracker.SetError(derror.FriendlyMessage(err))
	n.tracker.SetLoading(false)
	n.tracker.SetTyping(false)
	return err
}

// Start opens a new session for a deal and seeds the state with the agent's
// opening turn.
func (n *negotiationUC) Start(ctx context.Context, dealID string, targetPrice float64, strategy string) error {
	defer logging.TraceDuration(n.log, "NegotiationUC.Start")()
	n.tracker.ResetSession()
	n.tracker.SetError("")
	n.tracker.SetLoading(true)

	res, err := n.svc.CreateSession(ctx, dealID, targetPrice, strategy)
	if err != nil {
		return n.fail("start", err)
	}

	metrics.IncSessionStarted()
	n.guard.BindKey(res.SessionID)
	n.tracker.SetSessionID(res.SessionID)
	n.tracker.SetStatus(res.Status)
	n.tracker.SetCurrentRound(res.CurrentRound)
	n.tracker.AddMessages([]model.NegotiationMessage{res.AgentMessage})
	n.tracker.SetLoading(false)
	n.log.Info().Str("session_id", res.SessionID).Str("deal_id", dealID).Msg("negotiation started")
	return nil
}

// Advance plays one round. counterOffer is required for ActionCounter and
// ignored otherwise.
func (n *negotiationUC) Advance(ctx context.Context, action adapter.UserAction, counterOffer *float64) error {
	defer logging.TraceDuration(n.log, "NegotiationUC.Advance")()
	st := n.tracker.State()
	if st.SessionID == "" {
		return domain.ErrNoActiveSession
	}
	if st.Status == model.SessionCompleted || st.Status == model.SessionCancelled {
		return domain.ErrSessionFinished
	}
	if action == adapter.ActionCounter && counterOffer == nil {
		return domain.ErrInvalidArgument
	}

	n.tracker.SetError("")
	n.tracker.SetLoading(true)
	n.tracker.SetTyping(true)

	if action == adapter.ActionCounter {
		n.tracker.AddMessages([]model.NegotiationMessage{userCounterMessage(st, *counterOffer)})
	}

	res, err := n.svc.NextRound(ctx, st.SessionID, action, counterOffer)
	if err != nil {
		return n.fail("advance", err)
	}

	metrics.IncRound(string(action))
	n.tracker.UpdateFromNextRound(res.AgentMessage.Metadata, []model.NegotiationMessage{res.AgentMessage}, res.CurrentRound)
	n.tracker.SetStatus(res.Status)
	if res.Status == model.SessionCompleted || res.Status == model.SessionCancelled {
		metrics.IncOutcome(string(res.Status))
	}
	return nil
}

func userCounterMessage(st model.NegotiationState, offer float64) model.NegotiationMessage {
	round := st.CurrentRound + 1
	return model.NegotiationMessage{
		ID:          fmt.Sprintf("%s:r%d:user", st.SessionID, round),
		SessionID:   st.SessionID,
		Role:        model.RoleUser,
		Content:     "Counter offer",
		RoundNumber: round,
		Metadata:    &model.MessageMetadata{CounterOffer: model.NewAmount(offer)},
		CreatedAt:   time.Now(),
	}
}

// LoadSession fetches the full session exactly once per session id; rapid
// duplicate invocations are absorbed by the guard, and a failed load stays
// retryable.
func (n *negotiationUC) LoadSession(ctx context.Context, sessionID string) error {
	n.guard.BindKey(sessionID)
	sess, ran, err := fetchguard.Execute(ctx, n.guard, func(ctx context.Context) (*model.NegotiationSession, error) {
		n.tracker.SetLoading(true)
		return n.svc.FetchSession(ctx, sessionID)
	})
	if !ran {
		return nil
	}
	if err != nil {
		return n.fail("load", err)
	}

	n.tracker.SetSessionID(sess.SessionID)
	n.tracker.SetStatus(sess.Status)
	n.tracker.SetCurrentRound(sess.CurrentRound)
	if sess.MaxRounds > 0 {
		n.tracker.SetMaxRounds(sess.MaxRounds)
	}
	n.tracker.SetMessages(sess.Messages)
	n.tracker.SetLoading(false)
	return nil
}

func (n *negotiationUC) SendChat(ctx context.Context, content string) error {
	st := n.tracker.State()
	if st.SessionID == "" {
		return domain.ErrNoActiveSession
	}
	msg, err := n.svc.SendChat(ctx, st.SessionID, content)
	if err != nil {
		return n.fail("chat", err)
	}
	n.tracker.AddMessages([]model.NegotiationMessage{*msg})
	return nil
}

func (n *negotiationUC) SendDealerInfo(ctx context.Context, info string) error {
	st := n.tracker.State()
	if st.SessionID == "" {
		return domain.ErrNoActiveSession
	}
	msg, err := n.svc.SendDealerInfo(ctx, st.SessionID, info)
	if err != nil {
		return n.fail("dealerinfo", err)
	}
	n.tracker.AddMessages([]model.NegotiationMessage{*msg})
	return nil
}

func (n *negotiationUC) LenderRecommendations(ctx context.Context, loanTermMonths int, creditScoreRange string) ([]model.FinancingOption, error) {
	st := n.tracker.State()
	if st.SessionID == "" {
		return nil, domain.ErrNoActiveSession
	}
	opts, err := n.svc.LenderRecommendations(ctx, st.SessionID, loanTermMonths, creditScoreRange)
	if err != nil {
		return nil, n.fail("lenders", err)
	}
	return opts, nil
}

// Reset discards the tracked session and reopens the fetch guard.
func (n *negotiationUC) Reset() {
	n.tracker.ResetSession()
	n.guard.Reset()
}

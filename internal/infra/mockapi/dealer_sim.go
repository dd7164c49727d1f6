// File: internal/infra/mockapi/dealer_sim.go
package mockapi

import (
	"fmt"
	"math"
	"time"

	"car-deal-negotiator/internal/domain/model"
)

// Deterministic dealer simulation. No randomness: tests and demos must be
// able to assert exact prices.

const (
	downPaymentShare = 0.10
	closeEnough      = 150 // ask-vs-counter gap below this settles the deal
)

// concessionRate controls how far the simulated dealer moves toward the
// buyer's counter each round.
func concessionRate(strategy string) float64 {
	switch strategy {
	case "aggressive":
		return 0.65
	case "firm":
		return 0.35
	default: // balanced
		return 0.5
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// agentMessageID mirrors the client's deterministic id scheme for round
// messages, so a refetched history merges cleanly.
func agentMessageID(sessionID string, round int) string {
	return fmt.Sprintf("%s:r%d:agent", sessionID, round)
}

func userMessageID(sessionID string, round int) string {
	return fmt.Sprintf("%s:r%d:user", sessionID, round)
}

// openingOffer is the dealer's first suggested price off the asking price.
func openingOffer(asking float64) float64 {
	return round2(asking * 0.98)
}

func (sess *session) appendAgentTurn(content string, meta *model.MessageMetadata) model.NegotiationMessage {
	msg := model.NegotiationMessage{
		ID:          agentMessageID(sess.SessionID, sess.CurrentRound),
		SessionID:   sess.SessionID,
		Role:        model.RoleDealerSim,
		Content:     content,
		RoundNumber: sess.CurrentRound,
		Metadata:    meta,
		CreatedAt:   time.Now(),
	}
	sess.Messages = append(sess.Messages, msg)
	return msg
}

func (sess *session) appendUserTurn(counter float64) {
	sess.Messages = append(sess.Messages, model.NegotiationMessage{
		ID:          userMessageID(sess.SessionID, sess.CurrentRound),
		SessionID:   sess.SessionID,
		Role:        model.RoleUser,
		Content:     "Counter offer",
		RoundNumber: sess.CurrentRound,
		Metadata:    &model.MessageMetadata{CounterOffer: model.NewAmount(counter)},
		CreatedAt:   time.Now(),
	})
}

// open seeds the session with the dealer's opening turn.
func (sess *session) open() model.NegotiationMessage {
	sess.CurrentRound = 1
	sess.CurrentAsk = openingOffer(sess.AskingPrice)
	meta := &model.MessageMetadata{
		SuggestedPrice: model.NewAmount(sess.CurrentAsk),
		AskingPrice:    model.NewAmount(sess.AskingPrice),
	}
	content := fmt.Sprintf(
		"Thanks for your interest. The vehicle is listed at $%.0f, but I can offer it at $%.0f today.",
		sess.AskingPrice, sess.CurrentAsk)
	return sess.appendAgentTurn(content, meta)
}

// confirm settles the deal at the current ask.
func (sess *session) confirm() model.NegotiationMessage {
	sess.Status = model.SessionCompleted
	sess.CurrentRound++
	final := sess.CurrentAsk
	meta := &model.MessageMetadata{
		Price:            model.NewAmount(final),
		AskingPrice:      model.NewAmount(sess.AskingPrice),
		CashSavings:      model.NewAmount(round2(sess.AskingPrice - final)),
		FinancingOptions: financingOptions(final, "good"),
	}
	content := fmt.Sprintf("Deal agreed at $%.2f. I'll draw up the paperwork.", final)
	return sess.appendAgentTurn(content, meta)
}

// reject cancels the session.
func (sess *session) reject() model.NegotiationMessage {
	sess.Status = model.SessionCancelled
	sess.CurrentRound++
	return sess.appendAgentTurn("Understood. The offer stays open if you change your mind.", nil)
}

// counter plays one counter round: the dealer concedes toward the buyer's
// number, settles when close, and stops conceding once max rounds is hit.
func (sess *session) counter(offer float64) model.NegotiationMessage {
	sess.CurrentRound++
	sess.appendUserTurn(offer)

	if offer >= sess.CurrentAsk {
		// Buyer offered at or above the ask; take it.
		sess.Status = model.SessionCompleted
		sess.CurrentAsk = offer
		return sess.settleTurn(offer)
	}

	newAsk := round2(sess.CurrentAsk - (sess.CurrentAsk-offer)*concessionRate(sess.Strategy))
	sess.CurrentAsk = newAsk

	if newAsk-offer <= closeEnough || sess.CurrentRound >= sess.MaxRounds {
		sess.Status = model.SessionCompleted
		return sess.settleTurn(newAsk)
	}

	meta := &model.MessageMetadata{
		SuggestedPrice:   model.NewAmount(newAsk),
		AskingPrice:      model.NewAmount(sess.AskingPrice),
		FinancingOptions: financingOptions(newAsk, "good"),
		CashSavings:      model.NewAmount(round2(sess.AskingPrice - newAsk)),
	}
	content := fmt.Sprintf("I can't go to $%.0f, but I can meet you at $%.2f.", offer, newAsk)
	return sess.appendAgentTurn(content, meta)
}

func (sess *session) settleTurn(price float64) model.NegotiationMessage {
	meta := &model.MessageMetadata{
		SuggestedPrice:   model.NewAmount(price),
		AskingPrice:      model.NewAmount(sess.AskingPrice),
		CashSavings:      model.NewAmount(round2(sess.AskingPrice - price)),
		FinancingOptions: financingOptions(price, "good"),
	}
	content := fmt.Sprintf("You drive a hard bargain. $%.2f and we have a deal.", price)
	return sess.appendAgentTurn(content, meta)
}

// aprForCredit is the flat rate table used by financing math and lender
// recommendations.
func aprForCredit(creditScoreRange string) float64 {
	switch creditScoreRange {
	case "excellent":
		return 5.5
	case "good":
		return 6.9
	case "fair":
		return 8.9
	case "poor":
		return 11.5
	default:
		return 6.9
	}
}

// monthlyPayment is the standard amortization formula.
func monthlyPayment(principal, aprPercent float64, termMonths int) float64 {
	r := aprPercent / 100 / 12
	if r == 0 {
		return principal / float64(termMonths)
	}
	f := math.Pow(1+r, float64(termMonths))
	return principal * r * f / (f - 1)
}

func financingOption(price, aprPercent float64, termMonths int, lender string) model.FinancingOption {
	loan := round2(price * (1 - downPaymentShare))
	monthly := round2(monthlyPayment(loan, aprPercent, termMonths))
	total := round2(monthly*float64(termMonths) + price*downPaymentShare)
	return model.FinancingOption{
		LoanAmount:             model.NewAmount(loan),
		MonthlyPaymentEstimate: model.NewAmount(monthly),
		LoanTermMonths:         model.NewAmount(float64(termMonths)),
		EstimatedAPR:           model.NewAmount(aprPercent),
		TotalCost:              model.NewAmount(total),
		LenderName:             lender,
	}
}

func financingOptions(price float64, creditScoreRange string) []model.FinancingOption {
	apr := aprForCredit(creditScoreRange)
	return []model.FinancingOption{
		financingOption(price, apr, 36, "Meridian Credit"),
		financingOption(price, apr+0.5, 48, "First Lane Bank"),
		financingOption(price, apr+1.0, 60, "AutoTrust Finance"),
	}
}

// lenderRecommendations answers the lender-recommendations endpoint for the
// session's current price point.
func lenderRecommendations(price float64, termMonths int, creditScoreRange string) []model.FinancingOption {
	if termMonths <= 0 {
		termMonths = 48
	}
	apr := aprForCredit(creditScoreRange)
	return []model.FinancingOption{
		financingOption(price, apr-0.3, termMonths, "Meridian Credit"),
		financingOption(price, apr, termMonths, "First Lane Bank"),
		financingOption(price, apr+0.4, termMonths, "AutoTrust Finance"),
	}
}

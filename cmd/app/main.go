// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os/signal"
	"syscall"

	"car-deal-negotiator/internal/config"
	"car-deal-negotiator/internal/domain/model"
	"car-deal-negotiator/internal/domain/ports/adapter"
	apiclient "car-deal-negotiator/internal/infra/api"
	"car-deal-negotiator/internal/infra/logging"
	"car-deal-negotiator/internal/infra/metrics"
	"car-deal-negotiator/internal/usecase"
)

// Demo driver: runs one automated negotiation against the configured backend
// (point API_BASE_URL at cmd/mockserver for a self-contained run).
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", true, "developer mode (console logs)")
	dealID := flag.String("deal", "deal-001", "deal id to negotiate")
	target := flag.Float64("target", 24000, "buyer target price")
	strategy := flag.String("strategy", "", "negotiation strategy hint")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	client, err := apiclient.NewClient(cfg.API, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("client")
	}

	strat := *strategy
	if strat == "" {
		strat = cfg.Negotiation.DefaultStrategy
	}
	uc := usecase.NewNegotiationUseCase(client, cfg.Negotiation.MaxRounds, logger)

	if err := uc.Start(ctx, *dealID, *target, strat); err != nil {
		logger.Fatal().Err(err).Msg("start negotiation")
	}
	tracker := uc.Tracker()

	// Automated buyer: confirm once the dealer is at or under target,
	// otherwise counter a third of the way up from the target.
	for round := 0; round < cfg.Negotiation.MaxRounds; round++ {
		st := tracker.State()
		if st.Status != model.SessionActive {
			break
		}
		price, ok := tracker.LatestPrice()
		if !ok {
			logger.Warn().Msg("no priced offer yet; stopping")
			break
		}
		logger.Info().Int("round", st.CurrentRound).Float64("dealer_price", price).Msg("dealer offer")

		if price <= *target {
			if err := uc.Advance(ctx, adapter.ActionConfirm, nil); err != nil {
				logger.Fatal().Err(err).Msg("confirm")
			}
			break
		}
		counter := math.Min(price, *target+(price-*target)/3)
		logger.Info().Float64("counter", counter).Msg("countering")
		if err := uc.Advance(ctx, adapter.ActionCounter, &counter); err != nil {
			logger.Fatal().Err(err).Msg("counter round")
		}
	}

	final := tracker.OfferStatus(target)
	ev := logger.Info().Str("status", string(final.Status)).Int("offers_seen", len(final.OfferHistory))
	if final.LastOffer != nil {
		ev = ev.Float64("final_price", final.LastOffer.Price).Str("source", string(final.LastOffer.Source))
	}
	if final.ComparisonToTarget != nil {
		ev = ev.Float64("vs_target", final.ComparisonToTarget.Amount).
			Bool("above_target", final.ComparisonToTarget.IsAboveTarget)
	}
	if savings, ok := tracker.CashSavings(); ok {
		ev = ev.Float64("cash_savings", savings)
	}
	ev.Msg("negotiation finished")

	for i, opt := range tracker.FinancingOptions() {
		monthly, _ := opt.MonthlyPaymentEstimate.Float()
		term, _ := opt.LoanTermMonths.Float()
		logger.Info().Int("option", i+1).Str("lender", opt.LenderName).
			Float64("monthly", monthly).Float64("term_months", term).Msg("financing option")
	}
}

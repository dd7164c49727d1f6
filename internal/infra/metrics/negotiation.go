package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(negotiationSessions, negotiationRounds, negotiationOutcomes) }

var (
	negotiationSessions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "negotiation_sessions_started_total",
			Help: "Count of negotiation sessions started.",
		},
	)

	negotiationRounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_rounds_total",
			Help: "Negotiation rounds advanced, per user action.",
		},
		[]string{"action"}, // confirm | reject | counter
	)

	negotiationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "negotiation_outcomes_total",
			Help: "Terminal session statuses observed by the tracker.",
		},
		[]string{"status"}, // completed | cancelled
	)
)

func IncSessionStarted() { negotiationSessions.Inc() }

func IncRound(action string) { negotiationRounds.WithLabelValues(norm(action)).Inc() }

func IncOutcome(status string) { negotiationOutcomes.WithLabelValues(norm(status)).Inc() }

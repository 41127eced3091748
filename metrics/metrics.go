// Package metrics holds the Prometheus collectors for the referral ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement outcomes
const (
	OutcomeFirstPurchase  = "first_purchase"
	OutcomeRepeatPurchase = "repeat_purchase"
	OutcomeReplayed       = "replayed"
	OutcomeRejected       = "rejected"
	OutcomeFailed         = "failed"
)

// Credited parties
const (
	PartyPurchaser = "purchaser"
	PartyReferrer  = "referrer"
)

var (
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral",
		Name:      "settlements_total",
		Help:      "Purchase settlements by outcome.",
	}, []string{"outcome"})

	Conversions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "referral",
		Name:      "conversions_total",
		Help:      "Referrals moved from pending to converted.",
	})

	CreditsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral",
		Name:      "credits_awarded_total",
		Help:      "Credits granted, by party.",
	}, []string{"party"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral",
		Name:      "registrations_total",
		Help:      "Accounts registered, by whether a referral code resolved.",
	}, []string{"referred"})

	InvariantViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "referral",
		Name:      "ledger_invariant_violations",
		Help:      "Rows found breaking settlement invariants by the last audit.",
	})
)

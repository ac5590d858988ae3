package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "referral_bot"

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Start events processed, by outcome.",
	}, []string{"outcome"})

	ReferralEdges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "referral_edges_total",
		Help:      "Referral edges recorded.",
	})

	RewardGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_grants_total",
		Help:      "Reward units granted, by source.",
	}, []string{"source"})

	RewardClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reward_claims_total",
		Help:      "Claim requests, by outcome.",
	}, []string{"outcome"})

	VerificationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_requests_total",
		Help:      "Verification requests, by outcome.",
	}, []string{"outcome"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Outbound notifications, by result.",
	}, []string{"result"})

	UpdatesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_handled_total",
		Help:      "Telegram updates handled, by kind.",
	}, []string{"kind"})
)

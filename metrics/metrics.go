// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons for VotesRejected
const (
	ReasonPollNotFound   = "poll_not_found"
	ReasonPollExpired    = "poll_expired"
	ReasonChoiceNotFound = "choice_not_found"
)

// VoteMetrics counts vote outcomes. A nil *VoteMetrics is valid and records nothing.
type VoteMetrics struct {
	VotesCast      prometheus.Counter
	VotesDuplicate prometheus.Counter
	VotesRejected  *prometheus.CounterVec
	CastDuration   prometheus.Histogram
	PollsCreated   prometheus.Counter
}

// NewVoteMetrics registers the collectors on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh prometheus.NewRegistry() in tests.
func NewVoteMetrics(reg prometheus.Registerer, namespace string) *VoteMetrics {
	f := promauto.With(reg)
	return &VoteMetrics{
		VotesCast: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_cast_total",
			Help:      "Total number of votes recorded",
		}),
		VotesDuplicate: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_duplicate_total",
			Help:      "Total number of votes rejected because the user already voted",
		}),
		VotesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_rejected_total",
			Help:      "Total number of votes rejected before insert",
		}, []string{"reason"}),
		CastDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_cast_duration_seconds",
			Help:      "Histogram of vote cast times including the insert",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~0.5s
		}),
		PollsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_created_total",
			Help:      "Total number of polls created",
		}),
	}
}

func (m *VoteMetrics) ObserveCast(start time.Time) {
	if m == nil {
		return
	}
	m.CastDuration.Observe(time.Since(start).Seconds())
}

func (m *VoteMetrics) Cast() {
	if m != nil {
		m.VotesCast.Inc()
	}
}

func (m *VoteMetrics) Duplicate() {
	if m != nil {
		m.VotesDuplicate.Inc()
	}
}

func (m *VoteMetrics) Rejected(reason string) {
	if m != nil {
		m.VotesRejected.WithLabelValues(reason).Inc()
	}
}

func (m *VoteMetrics) PollCreated() {
	if m != nil {
		m.PollsCreated.Inc()
	}
}

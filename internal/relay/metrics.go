package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tgrelay"

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "messages_sent_total",
		Help:      "Outbound sendMessage attempts by result.",
	}, []string{"result"})

	replyWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "reply_waits_total",
		Help:      "Completed reply waits by outcome.",
	}, []string{"outcome"})

	updatesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "updates_fetched_total",
		Help:      "Updates returned by getUpdates.",
	})

	updateFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "update_fetch_errors_total",
		Help:      "Failed getUpdates calls.",
	})

	repliesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "replies_matched_total",
		Help:      "Inbound replies matched to a sent message and stored.",
	})

	cursorOffset = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "cursor_offset",
		Help:      "Next update id requested from Telegram.",
	})
)

const (
	outcomeFound     = "found"
	outcomeExpired   = "expired"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus instruments shared across the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wispbot"

var (
	// MessagesScanned counts guild messages run through a scanner, labeled by
	// scanner name ("mentions", "comments", "codelinks", "zigcode", "xkcd").
	MessagesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_scanned_total",
			Help:      "Messages processed by each content scanner",
		},
		[]string{"scanner"},
	)

	// RepliesSent counts enrichment replies posted, labeled by scanner.
	RepliesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_sent_total",
			Help:      "Enrichment replies posted by each content scanner",
		},
		[]string{"scanner"},
	)

	// GitHubRequests counts outbound GitHub API calls by endpoint group and outcome.
	GitHubRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "Outbound GitHub API requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// CacheOps counts TTR cache operations by cache name and result
	// ("hit", "miss", "refresh", "stale_served").
	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_ops_total",
			Help:      "TTR cache operations",
		},
		[]string{"cache", "result"},
	)

	// WebhookEvents counts received GitHub webhook deliveries by event and action.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "GitHub webhook deliveries received",
		},
		[]string{"event", "action"},
	)

	// WebhookRejected counts webhook deliveries rejected before dispatch.
	WebhookRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_rejected_total",
			Help:      "GitHub webhook deliveries rejected",
		},
		[]string{"reason"},
	)

	// FilterDeletions counts messages removed by channel filters.
	FilterDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_deletions_total",
			Help:      "Messages deleted by channel message filters",
		},
		[]string{"channel"},
	)

	// PostsAutoclosed counts help posts archived by the autoclose scan.
	PostsAutoclosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_autoclosed_total",
			Help:      "Help posts archived by the autoclose scan",
		},
	)

	// HandlerDuration observes scanner handling time.
	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent handling a message per scanner",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"scanner"},
	)

	// DiscordErrors counts failed Discord REST calls by operation.
	DiscordErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discord_errors_total",
			Help:      "Failed Discord REST operations",
		},
		[]string{"op"},
	)
)

// Package metrics holds the domain counters exported on /metrics next to
// the HTTP middleware metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_status_transitions_total",
			Help: "Document status transitions by target status",
		},
		[]string{"status"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_messages_sent_total",
			Help: "Clarification messages persisted by sender and recipient role",
		},
		[]string{"sender_role", "recipient_role"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_rejections_total",
			Help: "Operations rejected by the permission checks",
		},
		[]string{"operation", "reason"},
	)

	Supersessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerdesk_supersessions_total",
			Help: "Documents replaced by a corrected upload",
		},
	)

	DocumentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerdesk_documents_created_total",
			Help: "Documents uploaded",
		},
	)

	UnreadCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerdesk_unread_cache_lookups_total",
			Help: "Unread counter cache lookups by result",
		},
		[]string{"result"},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerdesk_notification_failures_total",
			Help: "Notifications that could not be handed to the delivery pipeline",
		},
	)
)

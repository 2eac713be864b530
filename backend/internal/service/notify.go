package service

import (
	"context"

	"github.com/ledgerdesk/ledgerdesk/backend/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

// publish hands committed events to the notifier. Delivery problems never
// fail the operation that produced them.
func (c *core) publish(ctx context.Context, notifications ...domain.Notification) {
	if c.notifier == nil {
		return
	}
	for _, n := range notifications {
		if len(n.Recipients) == 0 {
			continue
		}
		if err := c.notifier.Notify(ctx, n); err != nil {
			metrics.NotificationFailures.Inc()
			c.log.Error("failed to publish notification", "kind", n.Kind, "document_id", n.DocumentId, "error", err)
		}
	}
}

func (c *core) invalidateUnread(ctx context.Context, userIds ...domain.UserId) {
	if c.cache == nil || len(userIds) == 0 {
		return
	}
	if err := c.cache.Invalidate(ctx, userIds...); err != nil {
		c.log.Error("failed to invalidate unread counters", "user_ids", userIds, "error", err)
	}
}

func recipientsOf(ps domain.Participants, roles ...domain.Role) []domain.UserId {
	var ids []domain.UserId
	for _, role := range roles {
		if p, ok := ps.Holder(role); ok {
			ids = append(ids, p.UserId)
		}
	}
	return ids
}

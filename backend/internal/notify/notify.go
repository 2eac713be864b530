// Package notify hands committed domain events to the delivery pipeline.
// Delivery itself (mail, push) is done by consumers of the stream.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
	"github.com/redis/go-redis/v9"
)

// Stream appends notifications to a Redis stream. The stream is trimmed
// to roughly maxLen entries.
type Stream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStream(client *redis.Client, stream string, maxLen int64) *Stream {
	return &Stream{client: client, stream: stream, maxLen: maxLen}
}

func (s *Stream) Notify(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"kind":        string(n.Kind),
			"document_id": n.DocumentId.String(),
			"payload":     payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

// Log writes notifications to the structured log. It is used when no
// Redis is configured.
type Log struct {
	log *slog.Logger
}

func NewLog() *Log {
	return &Log{log: logger.Component("notify")}
}

func (l *Log) Notify(ctx context.Context, n domain.Notification) error {
	l.log.Info("notification", "kind", n.Kind, "document_id", n.DocumentId, "recipients", n.Recipients)
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

// maxChainDepth bounds the walk along superseded_by pointers.
const maxChainDepth = 64

type MessageService interface {
	Send(ctx context.Context, documentId domain.DocumentId, sender domain.UserId, recipient domain.Role, text domain.MsgText, isReply bool) (*domain.Message, error)
	List(ctx context.Context, documentId domain.DocumentId, caller domain.UserId, since *time.Time) ([]domain.Message, error)
	UnreadCount(ctx context.Context, userId domain.UserId) (int, error)
	MarkRead(ctx context.Context, messageId domain.MessageId, userId domain.UserId) error
}

type Message struct {
	core
}

func NewMessage(deps Deps) MessageService {
	return &Message{newCore(deps, "message")}
}

func (s *Message) Send(ctx context.Context, documentId domain.DocumentId, sender domain.UserId, recipient domain.Role, text domain.MsgText, isReply bool) (*domain.Message, error) {
	if !recipient.Valid() {
		return nil, internal_errors.Validation("malformed recipient role %q", recipient)
	}
	if err := s.validateText(text); err != nil {
		return nil, err
	}

	var (
		msg    *domain.Message
		holder domain.Participant
	)
	err := s.store.WithTx(ctx, func(q Queries) error {
		doc, err := q.LockDocument(ctx, documentId)
		if err != nil {
			return err
		}
		ps, err := q.ListParticipants(ctx, documentId)
		if err != nil {
			return err
		}
		from, ok := ps.Active(sender)
		if !ok {
			metrics.Rejections.WithLabelValues("send_message", "not_a_participant").Inc()
			return internal_errors.ErrNotAParticipant
		}
		if doc.IsSuperseded() {
			return internal_errors.ErrAlreadySuperseded
		}
		if !rbac.CanMessage(from.Role, recipient) {
			metrics.Rejections.WithLabelValues("send_message", "permission_denied").Inc()
			s.log.Warn("message outside matrix", "document_id", documentId, "sender", sender, "sender_role", from.Role, "recipient_role", recipient)
			return internal_errors.PermissionDenied("%s cannot address %s", from.Role, recipient)
		}
		if holder, ok = ps.Holder(recipient); !ok {
			return internal_errors.Validation("no %s on this document to address", recipient)
		}

		now := s.now()
		msg = &domain.Message{
			DocumentId:    documentId,
			SenderId:      sender,
			SenderRole:    from.Role,
			RecipientRole: recipient,
			Text:          strings.TrimSpace(text),
			IsReply:       isReply,
			CreatedAt:     now,
		}
		if err := q.InsertMessage(ctx, msg); err != nil {
			return err
		}
		return q.TouchDocument(ctx, documentId, now)
	})
	if err != nil {
		return nil, err
	}

	msg.RecipientUserId = &holder.UserId
	metrics.MessagesSent.WithLabelValues(string(msg.SenderRole), string(recipient)).Inc()
	s.log.Info("message sent", "document_id", documentId, "message_id", msg.Id, "sender_role", msg.SenderRole, "recipient_role", recipient)
	s.invalidateUnread(ctx, holder.UserId)
	s.publish(ctx, domain.Notification{
		Kind:       domain.NotifyMessageCreated,
		DocumentId: documentId,
		Recipients: []domain.UserId{holder.UserId},
		MessageId:  &msg.Id,
		CreatedAt:  msg.CreatedAt,
	})
	return msg, nil
}

// List returns the thread as the caller's document saw it. On a superseded
// document the messages now live on the head of its supersession chain;
// those written up to the moment of supersession are returned, minus any
// that were written on a later document of the chain.
func (s *Message) List(ctx context.Context, documentId domain.DocumentId, caller domain.UserId, since *time.Time) ([]domain.Message, error) {
	doc, err := s.store.GetDocument(ctx, documentId)
	if err != nil {
		return nil, err
	}
	ps, err := s.store.ListParticipants(ctx, documentId)
	if err != nil {
		return nil, err
	}
	if _, ok := ps.Member(caller); !ok {
		metrics.Rejections.WithLabelValues("list_messages", "forbidden").Inc()
		return nil, internal_errors.Forbidden("not a participant of this document")
	}

	head, until := doc, doc.SupersededAt
	later := map[domain.DocumentId]bool{}
	for depth := 0; head.IsSuperseded(); depth++ {
		if depth >= maxChainDepth {
			return nil, fmt.Errorf("supersession chain of %s is longer than %d", documentId, maxChainDepth)
		}
		if head, err = s.store.GetDocument(ctx, *head.SupersededBy); err != nil {
			return nil, err
		}
		later[head.Id] = true
	}
	if head.Id != doc.Id {
		if ps, err = s.store.ListParticipants(ctx, head.Id); err != nil {
			return nil, err
		}
	}

	msgs, err := s.store.ListMessages(ctx, head.Id, since, until)
	if err != nil {
		return nil, err
	}
	if len(later) > 0 {
		kept := msgs[:0]
		for _, m := range msgs {
			if !later[m.OriginDocumentId] {
				kept = append(kept, m)
			}
		}
		msgs = kept
	}
	for i := range msgs {
		if p, ok := ps.Holder(msgs[i].RecipientRole); ok {
			userId := p.UserId
			msgs[i].RecipientUserId = &userId
		}
	}
	return msgs, nil
}

func (s *Message) UnreadCount(ctx context.Context, userId domain.UserId) (int, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		n, v, ok, err := s.cache.Get(ctx, userId)
		switch {
		case err != nil:
			metrics.UnreadCacheLookups.WithLabelValues("error").Inc()
			s.log.Error("unread cache lookup failed", "user_id", userId, "error", err)
		case ok:
			metrics.UnreadCacheLookups.WithLabelValues("hit").Inc()
			return n, nil
		default:
			metrics.UnreadCacheLookups.WithLabelValues("miss").Inc()
			version, cacheable = v, true
		}
	}

	n, err := s.store.CountUnread(ctx, userId)
	if err != nil {
		return 0, err
	}
	if cacheable {
		if err := s.cache.Set(ctx, userId, n, version); err != nil {
			s.log.Error("failed to cache unread count", "user_id", userId, "error", err)
		}
	}
	return n, nil
}

// MarkRead is only allowed to the user the message currently resolves to.
// Marking an already read message is a no-op.
func (s *Message) MarkRead(ctx context.Context, messageId domain.MessageId, userId domain.UserId) error {
	msg, err := s.store.GetMessage(ctx, messageId)
	if err != nil {
		return err
	}
	ps, err := s.store.ListParticipants(ctx, msg.DocumentId)
	if err != nil {
		return err
	}
	if _, ok := ps.Member(userId); !ok {
		return internal_errors.NotFound("message")
	}
	if holder, ok := ps.Holder(msg.RecipientRole); !ok || holder.UserId != userId {
		return internal_errors.Forbidden("message is addressed to someone else")
	}

	changed, err := s.store.MarkMessageRead(ctx, messageId, s.now())
	if err != nil {
		return err
	}
	if changed {
		s.invalidateUnread(ctx, userId)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"

	"github.com/google/uuid"
)

type DocumentService interface {
	Create(ctx context.Context, clientId domain.ClientId, fileRef domain.FileRef) (*domain.Document, error)
	Get(ctx context.Context, id domain.DocumentId, caller domain.UserId) (*domain.Document, error)
	ListSince(ctx context.Context, caller domain.UserId, since *time.Time) ([]domain.Document, error)
	ListParticipants(ctx context.Context, id domain.DocumentId, caller domain.UserId) (domain.Participants, error)
	SetStatus(ctx context.Context, id domain.DocumentId, actor domain.UserId, cmd domain.StatusCommand) (*domain.Document, error)
}

type Document struct {
	core
}

func NewDocument(deps Deps) DocumentService {
	return &Document{newCore(deps, "document")}
}

func (s *Document) Create(ctx context.Context, clientId domain.ClientId, fileRef domain.FileRef) (*domain.Document, error) {
	fileRef, err := s.validateFileRef(fileRef)
	if err != nil {
		return nil, err
	}

	var doc *domain.Document
	err = s.store.WithTx(ctx, func(q Queries) error {
		var err error
		doc, err = createDocumentTx(ctx, q, clientId, fileRef, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentsCreated.Inc()
	s.log.Info("document created", "document_id", doc.Id, "client_id", clientId, "participants", len(doc.Participants))
	return doc, nil
}

func (s *Document) Get(ctx context.Context, id domain.DocumentId, caller domain.UserId) (*domain.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	ps, err := s.store.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := ps.Member(caller); !ok {
		return nil, internal_errors.Forbidden("not a participant of this document")
	}
	doc.Participants = ps
	return doc, nil
}

func (s *Document) ListSince(ctx context.Context, caller domain.UserId, since *time.Time) ([]domain.Document, error) {
	return s.store.ListDocumentsForUser(ctx, caller, since)
}

func (s *Document) ListParticipants(ctx context.Context, id domain.DocumentId, caller domain.UserId) (domain.Participants, error) {
	doc, err := s.Get(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return doc.Participants, nil
}

// SetStatus applies cmd on behalf of an accountant of the document's firm.
// For a clarification request the sender role is the actor's own
// participant role; an accountant outside the participant set speaks for
// the firm.
func (s *Document) SetStatus(ctx context.Context, id domain.DocumentId, actor domain.UserId, cmd domain.StatusCommand) (*domain.Document, error) {
	if err := s.validateCommand(cmd); err != nil {
		return nil, err
	}

	var (
		doc           *domain.Document
		notifications []domain.Notification
		unread        []domain.UserId
	)
	err := s.store.WithTx(ctx, func(q Queries) error {
		acc, err := q.GetAccountantByUser(ctx, actor)
		if err != nil {
			if errors.Is(err, internal_errors.ErrNotFound) {
				return internal_errors.Forbidden("only accountants can change document status")
			}
			return err
		}
		current, err := q.LockDocument(ctx, id)
		if err != nil {
			return err
		}
		client, err := q.GetClient(ctx, current.ClientId)
		if err != nil {
			return err
		}
		if client.FirmId != acc.FirmId {
			return internal_errors.NotFound("document")
		}
		if current.IsSuperseded() {
			return internal_errors.ErrAlreadySuperseded
		}
		ps, err := q.ListParticipants(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		var notes *string
		kind := domain.NotifyDocumentPosted
		recipients := recipientsOf(ps, domain.RoleClient)
		var messageId *domain.MessageId

		switch c := cmd.(type) {
		case domain.RequestClarification:
			// An accountant outside the participant set is stored as the
			// sender but is not added to the document, so it cannot read
			// the thread afterwards. Replies go to the firm owner.
			senderRole := domain.RoleFirm
			if p, ok := ps.Active(actor); ok {
				senderRole = p.Role
			}
			if !rbac.CanMessage(senderRole, c.Recipient) {
				metrics.Rejections.WithLabelValues("set_status", "permission_denied").Inc()
				s.log.Warn("clarification outside message matrix", "document_id", id, "actor", actor, "sender_role", senderRole, "recipient_role", c.Recipient)
				return internal_errors.PermissionDenied("%s cannot address %s", senderRole, c.Recipient)
			}
			holder, ok := ps.Holder(c.Recipient)
			if !ok {
				return internal_errors.Validation("no %s on this document to address", c.Recipient)
			}
			msg := &domain.Message{
				DocumentId:    id,
				SenderId:      actor,
				SenderRole:    senderRole,
				RecipientRole: c.Recipient,
				Text:          strings.TrimSpace(c.Message),
				CreatedAt:     now,
			}
			if err := q.InsertMessage(ctx, msg); err != nil {
				return err
			}
			if err := q.TouchDocument(ctx, id, now); err != nil {
				return err
			}
			metrics.MessagesSent.WithLabelValues(string(senderRole), string(c.Recipient)).Inc()
			kind = domain.NotifyClarificationRequested
			recipients = []domain.UserId{holder.UserId}
			unread = recipients
			messageId = &msg.Id
		case domain.RequestResend:
			if note := strings.TrimSpace(c.Note); note != "" {
				notes = &note
			}
			kind = domain.NotifyResendRequested
		}

		if err := q.UpdateDocumentStatus(ctx, id, cmd.Target(), notes, now); err != nil {
			return err
		}
		if doc, err = q.GetDocument(ctx, id); err != nil {
			return err
		}
		doc.Participants = ps
		notifications = append(notifications, domain.Notification{
			Kind:       kind,
			DocumentId: id,
			Recipients: recipients,
			MessageId:  messageId,
			CreatedAt:  now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(doc.Status)).Inc()
	s.log.Info("document status changed", "document_id", id, "actor", actor, "status", doc.Status)
	s.invalidateUnread(ctx, unread...)
	s.publish(ctx, notifications...)
	return doc, nil
}

func (s *Document) validateCommand(cmd domain.StatusCommand) error {
	switch c := cmd.(type) {
	case domain.Post:
		return nil
	case domain.RequestClarification:
		if strings.TrimSpace(c.Message) == "" {
			return internal_errors.InvalidTransition("clarification_needed requires a message")
		}
		if !c.Recipient.Valid() {
			return internal_errors.Validation("malformed recipient role %q", c.Recipient)
		}
		return s.validateText(c.Message)
	case domain.RequestResend:
		if utf8.RuneCountInString(c.Note) > s.limits.MaxNoteLength {
			return internal_errors.Validation("note is longer than %d characters", s.limits.MaxNoteLength)
		}
		return nil
	}
	return internal_errors.InvalidTransition("unsupported status command")
}

func (c *core) validateText(text domain.MsgText) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return internal_errors.Validation("message text is empty")
	}
	if utf8.RuneCountInString(text) > c.limits.MaxMessageLength {
		return internal_errors.Validation("message is longer than %d characters", c.limits.MaxMessageLength)
	}
	return nil
}

func (c *core) validateFileRef(fileRef domain.FileRef) (domain.FileRef, error) {
	fileRef = strings.TrimSpace(fileRef)
	if fileRef == "" {
		return "", internal_errors.Validation("file_ref is required")
	}
	if utf8.RuneCountInString(fileRef) > c.limits.MaxFileRefLength {
		return "", internal_errors.Validation("file_ref is longer than %d characters", c.limits.MaxFileRefLength)
	}
	return fileRef, nil
}

// createDocumentTx inserts a pending document and its participant set as
// derived from the tenancy graph at this moment.
func createDocumentTx(ctx context.Context, q Queries, clientId domain.ClientId, fileRef domain.FileRef, now time.Time) (*domain.Document, error) {
	snap, err := clientSnapshot(ctx, q, clientId)
	if err != nil {
		return nil, err
	}
	doc := &domain.Document{
		Id:         uuid.New(),
		ClientId:   clientId,
		Status:     domain.StatusPending,
		FileRef:    fileRef,
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := q.InsertDocument(ctx, doc); err != nil {
		return nil, err
	}
	doc.Participants = ResolveParticipants(doc.Id, snap)
	if err := q.InsertParticipants(ctx, doc.Participants); err != nil {
		return nil, err
	}
	return doc, nil
}

func clientSnapshot(ctx context.Context, q Queries, clientId domain.ClientId) (domain.ClientSnapshot, error) {
	client, err := q.GetClient(ctx, clientId)
	if err != nil {
		return domain.ClientSnapshot{}, err
	}
	firm, err := q.GetFirm(ctx, client.FirmId)
	if err != nil {
		return domain.ClientSnapshot{}, err
	}
	snap := domain.ClientSnapshot{Client: *client, FirmOwnerUserId: firm.OwnerUserId}
	if client.AccountantId != nil {
		acc, err := q.GetAccountant(ctx, *client.AccountantId)
		if err != nil {
			return domain.ClientSnapshot{}, err
		}
		snap.AccountantUserId = &acc.UserId
	}
	return snap, nil
}

package service

import (
	"context"
	"time"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/metrics"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

type SupersessionService interface {
	Supersede(ctx context.Context, oldId, newId domain.DocumentId, caller domain.ClientId) (*domain.Document, error)
	Replace(ctx context.Context, oldId domain.DocumentId, caller domain.ClientId, fileRef domain.FileRef) (*domain.Document, error)
}

type Supersession struct {
	core
}

func NewSupersession(deps Deps) SupersessionService {
	return &Supersession{newCore(deps, "supersession")}
}

// supersedeResult carries what has to happen once the transaction commits.
type supersedeResult struct {
	head     *domain.Document
	moved    int64
	audience []domain.UserId
}

func (s *Supersession) Supersede(ctx context.Context, oldId, newId domain.DocumentId, caller domain.ClientId) (*domain.Document, error) {
	if oldId == newId {
		return nil, internal_errors.Validation("a document cannot supersede itself")
	}

	var res supersedeResult
	err := s.store.WithTx(ctx, func(q Queries) error {
		// Lock order is fixed so two supersessions over the same pair
		// cannot deadlock.
		first, second := oldId, newId
		if second.String() < first.String() {
			first, second = second, first
		}
		locked := make(map[domain.DocumentId]*domain.Document, 2)
		for _, id := range []domain.DocumentId{first, second} {
			doc, err := q.LockDocument(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = doc
		}
		old, next := locked[oldId], locked[newId]

		if old.ClientId != caller {
			metrics.Rejections.WithLabelValues("supersede", "not_owner").Inc()
			return internal_errors.ErrNotOwner
		}
		if old.IsSuperseded() {
			return internal_errors.ErrAlreadySuperseded
		}
		if next.ClientId != old.ClientId {
			return internal_errors.Validation("replacement belongs to another client")
		}
		if next.IsSuperseded() {
			return internal_errors.ErrAlreadySuperseded
		}
		isTarget, err := q.IsSupersessionTarget(ctx, newId)
		if err != nil {
			return err
		}
		if isTarget {
			return internal_errors.Conflict("document %s already replaces another document", newId)
		}

		res, err = supersedeTx(ctx, q, old, next, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, oldId, res)
	return res.head, nil
}

// Replace uploads fileRef as the successor of oldId and supersedes oldId
// with it in the same transaction.
func (s *Supersession) Replace(ctx context.Context, oldId domain.DocumentId, caller domain.ClientId, fileRef domain.FileRef) (*domain.Document, error) {
	fileRef, err := s.validateFileRef(fileRef)
	if err != nil {
		return nil, err
	}

	var res supersedeResult
	err = s.store.WithTx(ctx, func(q Queries) error {
		old, err := q.LockDocument(ctx, oldId)
		if err != nil {
			return err
		}
		if old.ClientId != caller {
			metrics.Rejections.WithLabelValues("replace", "not_owner").Inc()
			return internal_errors.ErrNotOwner
		}
		if old.IsSuperseded() {
			return internal_errors.ErrAlreadySuperseded
		}
		now := s.now()
		next, err := createDocumentTx(ctx, q, caller, fileRef, now)
		if err != nil {
			return err
		}
		res, err = supersedeTx(ctx, q, old, next, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.DocumentsCreated.Inc()
	s.finish(ctx, oldId, res)
	return res.head, nil
}

func (s *Supersession) finish(ctx context.Context, oldId domain.DocumentId, res supersedeResult) {
	metrics.Supersessions.Inc()
	s.log.Info("document superseded", "old_document_id", oldId, "new_document_id", res.head.Id, "messages_moved", res.moved)
	s.invalidateUnread(ctx, res.audience...)

	var recipients []domain.UserId
	for _, p := range res.head.Participants {
		if !p.Historical && p.Role != domain.RoleClient {
			recipients = append(recipients, p.UserId)
		}
	}
	s.publish(ctx, domain.Notification{
		Kind:       domain.NotifyDocumentSuperseded,
		DocumentId: res.head.Id,
		Recipients: recipients,
		CreatedAt:  s.now(),
	})
}

// supersedeTx moves the thread and audience of old onto next and retires
// old. Both rows must already be locked by the caller.
func supersedeTx(ctx context.Context, q Queries, old, next *domain.Document, now time.Time) (supersedeResult, error) {
	moved, err := q.ReparentMessages(ctx, old.Id, next.Id)
	if err != nil {
		return supersedeResult{}, err
	}

	oldPs, err := q.ListParticipants(ctx, old.Id)
	if err != nil {
		return supersedeResult{}, err
	}
	nextPs, err := q.ListParticipants(ctx, next.Id)
	if err != nil {
		return supersedeResult{}, err
	}
	snap, err := clientSnapshot(ctx, q, next.ClientId)
	if err != nil {
		return supersedeResult{}, err
	}
	var leaving domain.Participants
	for _, p := range oldPs {
		if _, ok := nextPs.Member(p.UserId); !ok && !p.Historical {
			leaving = append(leaving, p)
		}
	}
	linked, err := linkedParticipants(ctx, q, snap, leaving)
	if err != nil {
		return supersedeResult{}, err
	}
	isLinked := func(p domain.Participant) bool { return linked[p.UserId] }
	if carried := mergeParticipants(next.Id, nextPs, oldPs, isLinked); len(carried) > 0 {
		if err := q.InsertParticipants(ctx, carried); err != nil {
			return supersedeResult{}, err
		}
		nextPs = append(nextPs, carried...)
	}

	if err := q.MarkSuperseded(ctx, old.Id, next.Id, now); err != nil {
		return supersedeResult{}, err
	}
	if err := q.UpdateDocumentStatus(ctx, next.Id, domain.StatusPending, nil, now); err != nil {
		return supersedeResult{}, err
	}
	if old.LastMessageAt != nil {
		if err := q.TouchDocument(ctx, next.Id, *old.LastMessageAt); err != nil {
			return supersedeResult{}, err
		}
	}

	head, err := q.GetDocument(ctx, next.Id)
	if err != nil {
		return supersedeResult{}, err
	}
	head.Participants = nextPs

	audience := nextPs.UserIds()
	for _, p := range oldPs {
		if _, ok := nextPs.Member(p.UserId); !ok {
			audience = append(audience, p.UserId)
		}
	}
	return supersedeResult{head: head, moved: moved, audience: audience}, nil
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
)

// Queries is the storage contract of the document core. Lookups of a
// single row return a NotFound error when the row is absent.
type Queries interface {
	GetFirm(ctx context.Context, id domain.FirmId) (*domain.Firm, error)
	GetAccountant(ctx context.Context, id domain.AccountantId) (*domain.Accountant, error)
	GetAccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error)
	GetClient(ctx context.Context, id domain.ClientId) (*domain.Client, error)
	GetClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error)
	SetClientAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) error

	InsertDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error)
	// LockDocument reads the row with SELECT ... FOR UPDATE.
	LockDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error)
	// UpdateDocumentStatus leaves notes untouched when nil.
	UpdateDocumentStatus(ctx context.Context, id domain.DocumentId, status domain.DocumentStatus, notes *string, at time.Time) error
	// TouchDocument moves last_message_at forward, never backward.
	TouchDocument(ctx context.Context, id domain.DocumentId, at time.Time) error
	MarkSuperseded(ctx context.Context, oldId, newId domain.DocumentId, at time.Time) error
	IsSupersessionTarget(ctx context.Context, id domain.DocumentId) (bool, error)
	// ListDocumentsForUser returns documents the user takes part in,
	// historical membership included, changed after since (if set).
	ListDocumentsForUser(ctx context.Context, userId domain.UserId, since *time.Time) ([]domain.Document, error)

	InsertParticipants(ctx context.Context, participants domain.Participants) error
	ListParticipants(ctx context.Context, documentId domain.DocumentId) (domain.Participants, error)

	// InsertMessage sets msg.Id.
	// InsertMessage sets msg.Id and msg.OriginDocumentId.
	InsertMessage(ctx context.Context, msg *domain.Message) error
	GetMessage(ctx context.Context, id domain.MessageId) (*domain.Message, error)
	// ListMessages orders by (created_at, id). since is exclusive, until inclusive.
	ListMessages(ctx context.Context, documentId domain.DocumentId, since, until *time.Time) ([]domain.Message, error)
	ReparentMessages(ctx context.Context, fromId, toId domain.DocumentId) (int64, error)
	// MarkMessageRead reports whether the flag changed.
	MarkMessageRead(ctx context.Context, id domain.MessageId, at time.Time) (bool, error)
	// CountUnread counts unread messages whose recipient role the user
	// currently holds on a document that is not superseded.
	CountUnread(ctx context.Context, userId domain.UserId) (int, error)
}

// Store runs Queries either directly or inside one transaction. fn's
// error rolls the transaction back and is returned unchanged.
type Store interface {
	Queries
	WithTx(ctx context.Context, fn func(q Queries) error) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// UnreadCache keeps per-user unread counters. ok is false on a miss. Set
// must drop the write if userId was invalidated after Get returned version.
type UnreadCache interface {
	Get(ctx context.Context, userId domain.UserId) (count int, version int64, ok bool, err error)
	Set(ctx context.Context, userId domain.UserId, count int, version int64) error
	Invalidate(ctx context.Context, userIds ...domain.UserId) error
}

type Limits struct {
	MaxMessageLength int
	MaxNoteLength    int
	MaxFileRefLength int
}

// Deps is shared by every service constructor. Notifier and Cache may be
// nil. Now defaults to the wall clock.
type Deps struct {
	Store    Store
	Notifier Notifier
	Cache    UnreadCache
	Limits   Limits
	Now      func() time.Time
}

type core struct {
	store    Store
	notifier Notifier
	cache    UnreadCache
	limits   Limits
	now      func() time.Time
	log      *slog.Logger
}

func newCore(deps Deps, component string) core {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC().Round(time.Microsecond) } // database anyway round to microsecond
	}
	return core{
		store:    deps.Store,
		notifier: deps.Notifier,
		cache:    deps.Cache,
		limits:   deps.Limits,
		now:      now,
		log:      logger.Component(component),
	}
}

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

// memState is the whole database of memStore. Values are copied in and
// out, pointers inside them are never mutated in place.
type memState struct {
	firms        map[domain.FirmId]domain.Firm
	accountants  map[domain.AccountantId]domain.Accountant
	clients      map[domain.ClientId]domain.Client
	documents    map[domain.DocumentId]domain.Document
	participants map[domain.DocumentId]domain.Participants
	messages     []domain.Message
	nextMsgId    domain.MessageId
}

func (st *memState) clone() memState {
	c := memState{
		firms:        make(map[domain.FirmId]domain.Firm, len(st.firms)),
		accountants:  make(map[domain.AccountantId]domain.Accountant, len(st.accountants)),
		clients:      make(map[domain.ClientId]domain.Client, len(st.clients)),
		documents:    make(map[domain.DocumentId]domain.Document, len(st.documents)),
		participants: make(map[domain.DocumentId]domain.Participants, len(st.participants)),
		messages:     append([]domain.Message(nil), st.messages...),
		nextMsgId:    st.nextMsgId,
	}
	for k, v := range st.firms {
		c.firms[k] = v
	}
	for k, v := range st.accountants {
		c.accountants[k] = v
	}
	for k, v := range st.clients {
		c.clients[k] = v
	}
	for k, v := range st.documents {
		c.documents[k] = v
	}
	for k, v := range st.participants {
		c.participants[k] = append(domain.Participants(nil), v...)
	}
	return c
}

// memStore is a transactional in-memory Store. Transactions are fully
// serialized and roll back by restoring a snapshot.
type memStore struct {
	*memQueries
}

type memQueries struct {
	mu     *sync.Mutex
	st     *memState
	inTx   bool
	faults map[string]error
}

func newMemStore() *memStore {
	st := &memState{
		firms:        map[domain.FirmId]domain.Firm{},
		accountants:  map[domain.AccountantId]domain.Accountant{},
		clients:      map[domain.ClientId]domain.Client{},
		documents:    map[domain.DocumentId]domain.Document{},
		participants: map[domain.DocumentId]domain.Participants{},
	}
	return &memStore{&memQueries{mu: &sync.Mutex{}, st: st, faults: map[string]error{}}}
}

func (s *memStore) WithTx(ctx context.Context, fn func(q Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	err := fn(&memQueries{mu: s.mu, st: s.st, inTx: true, faults: s.faults})
	if err != nil {
		*s.st = snapshot
	}
	return err
}

// failOn makes the named query return err until cleared.
func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (q *memQueries) guard() func() {
	if q.inTx {
		return func() {}
	}
	q.mu.Lock()
	return q.mu.Unlock
}

func (q *memQueries) fault(method string) error {
	return q.faults[method]
}

// seeding helpers, usable outside transactions only

func (s *memStore) addFirm(f domain.Firm) {
	defer s.guard()()
	s.st.firms[f.Id] = f
}

func (s *memStore) addAccountant(a domain.Accountant) {
	defer s.guard()()
	s.st.accountants[a.Id] = a
}

func (s *memStore) removeAccountant(id domain.AccountantId) {
	defer s.guard()()
	delete(s.st.accountants, id)
}

func (s *memStore) addClient(c domain.Client) {
	defer s.guard()()
	s.st.clients[c.Id] = c
}

func (s *memStore) messagesOn(id domain.DocumentId) []domain.Message {
	defer s.guard()()
	var out []domain.Message
	for _, m := range s.st.messages {
		if m.DocumentId == id {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) messageCount() int {
	defer s.guard()()
	return len(s.st.messages)
}

func (q *memQueries) GetFirm(ctx context.Context, id domain.FirmId) (*domain.Firm, error) {
	defer q.guard()()
	f, ok := q.st.firms[id]
	if !ok {
		return nil, internal_errors.NotFound("firm")
	}
	return &f, nil
}

func (q *memQueries) GetAccountant(ctx context.Context, id domain.AccountantId) (*domain.Accountant, error) {
	defer q.guard()()
	a, ok := q.st.accountants[id]
	if !ok {
		return nil, internal_errors.NotFound("accountant")
	}
	return &a, nil
}

func (q *memQueries) GetAccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error) {
	defer q.guard()()
	for _, a := range q.st.accountants {
		if a.UserId == userId {
			return &a, nil
		}
	}
	return nil, internal_errors.NotFound("accountant")
}

func (q *memQueries) GetClient(ctx context.Context, id domain.ClientId) (*domain.Client, error) {
	defer q.guard()()
	c, ok := q.st.clients[id]
	if !ok {
		return nil, internal_errors.NotFound("client")
	}
	return &c, nil
}

func (q *memQueries) GetClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error) {
	defer q.guard()()
	for _, c := range q.st.clients {
		if c.UserId == userId {
			return &c, nil
		}
	}
	return nil, internal_errors.NotFound("client")
}

func (q *memQueries) SetClientAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) error {
	defer q.guard()()
	c, ok := q.st.clients[clientId]
	if !ok {
		return internal_errors.NotFound("client")
	}
	c.AccountantId = nil
	if accountantId != nil {
		id := *accountantId
		c.AccountantId = &id
	}
	q.st.clients[clientId] = c
	return nil
}

func (q *memQueries) InsertDocument(ctx context.Context, doc *domain.Document) error {
	defer q.guard()()
	if err := q.fault("InsertDocument"); err != nil {
		return err
	}
	if _, ok := q.st.documents[doc.Id]; ok {
		return internal_errors.Conflict("document %s exists", doc.Id)
	}
	stored := *doc
	stored.Participants = nil
	q.st.documents[doc.Id] = stored
	return nil
}

func (q *memQueries) GetDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error) {
	defer q.guard()()
	d, ok := q.st.documents[id]
	if !ok {
		return nil, internal_errors.NotFound("document")
	}
	return &d, nil
}

func (q *memQueries) LockDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error) {
	if err := q.fault("LockDocument"); err != nil {
		return nil, err
	}
	return q.GetDocument(ctx, id)
}

func (q *memQueries) UpdateDocumentStatus(ctx context.Context, id domain.DocumentId, status domain.DocumentStatus, notes *string, at time.Time) error {
	defer q.guard()()
	if err := q.fault("UpdateDocumentStatus"); err != nil {
		return err
	}
	d, ok := q.st.documents[id]
	if !ok {
		return internal_errors.NotFound("document")
	}
	d.Status = status
	if notes != nil {
		d.Notes = *notes
	}
	d.UpdatedAt = at
	q.st.documents[id] = d
	return nil
}

func (q *memQueries) TouchDocument(ctx context.Context, id domain.DocumentId, at time.Time) error {
	defer q.guard()()
	d, ok := q.st.documents[id]
	if !ok {
		return internal_errors.NotFound("document")
	}
	if d.LastMessageAt == nil || at.After(*d.LastMessageAt) {
		ts := at
		d.LastMessageAt = &ts
	}
	q.st.documents[id] = d
	return nil
}

func (q *memQueries) MarkSuperseded(ctx context.Context, oldId, newId domain.DocumentId, at time.Time) error {
	defer q.guard()()
	if err := q.fault("MarkSuperseded"); err != nil {
		return err
	}
	d, ok := q.st.documents[oldId]
	if !ok {
		return internal_errors.NotFound("document")
	}
	if d.SupersededBy != nil {
		return internal_errors.ErrAlreadySuperseded
	}
	for _, other := range q.st.documents {
		if other.SupersededBy != nil && *other.SupersededBy == newId {
			return internal_errors.Conflict("duplicate supersession target")
		}
	}
	next, ts := newId, at
	d.SupersededBy, d.SupersededAt, d.UpdatedAt = &next, &ts, at
	q.st.documents[oldId] = d
	return nil
}

func (q *memQueries) IsSupersessionTarget(ctx context.Context, id domain.DocumentId) (bool, error) {
	defer q.guard()()
	for _, d := range q.st.documents {
		if d.SupersededBy != nil && *d.SupersededBy == id {
			return true, nil
		}
	}
	return false, nil
}

func changedAt(d domain.Document) time.Time {
	if d.LastMessageAt != nil && d.LastMessageAt.After(d.UpdatedAt) {
		return *d.LastMessageAt
	}
	return d.UpdatedAt
}

func (q *memQueries) ListDocumentsForUser(ctx context.Context, userId domain.UserId, since *time.Time) ([]domain.Document, error) {
	defer q.guard()()
	var out []domain.Document
	for id, ps := range q.st.participants {
		if _, ok := ps.Member(userId); !ok {
			continue
		}
		d := q.st.documents[id]
		if since != nil && !changedAt(d).After(*since) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := changedAt(out[i]), changedAt(out[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return out[i].Id.String() < out[j].Id.String()
	})
	return out, nil
}

func (q *memQueries) InsertParticipants(ctx context.Context, participants domain.Participants) error {
	defer q.guard()()
	if err := q.fault("InsertParticipants"); err != nil {
		return err
	}
	for _, p := range participants {
		existing := q.st.participants[p.DocumentId]
		if _, ok := existing.Member(p.UserId); ok {
			return internal_errors.Conflict("duplicate participant")
		}
		if _, ok := existing.Holder(p.Role); ok && !p.Historical {
			return internal_errors.Conflict("role already held")
		}
		q.st.participants[p.DocumentId] = append(existing, p)
	}
	return nil
}

func (q *memQueries) ListParticipants(ctx context.Context, documentId domain.DocumentId) (domain.Participants, error) {
	defer q.guard()()
	return append(domain.Participants(nil), q.st.participants[documentId]...), nil
}

func (q *memQueries) InsertMessage(ctx context.Context, msg *domain.Message) error {
	defer q.guard()()
	if err := q.fault("InsertMessage"); err != nil {
		return err
	}
	q.st.nextMsgId++
	msg.Id = q.st.nextMsgId
	msg.OriginDocumentId = msg.DocumentId
	stored := *msg
	stored.RecipientUserId = nil
	q.st.messages = append(q.st.messages, stored)
	return nil
}

func (q *memQueries) GetMessage(ctx context.Context, id domain.MessageId) (*domain.Message, error) {
	defer q.guard()()
	for _, m := range q.st.messages {
		if m.Id == id {
			return &m, nil
		}
	}
	return nil, internal_errors.NotFound("message")
}

func (q *memQueries) ListMessages(ctx context.Context, documentId domain.DocumentId, since, until *time.Time) ([]domain.Message, error) {
	defer q.guard()()
	var out []domain.Message
	for _, m := range q.st.messages {
		if m.DocumentId != documentId {
			continue
		}
		if since != nil && !m.CreatedAt.After(*since) {
			continue
		}
		if until != nil && m.CreatedAt.After(*until) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Id < out[j].Id
	})
	return out, nil
}

func (q *memQueries) ReparentMessages(ctx context.Context, fromId, toId domain.DocumentId) (int64, error) {
	defer q.guard()()
	if err := q.fault("ReparentMessages"); err != nil {
		return 0, err
	}
	var n int64
	for i := range q.st.messages {
		if q.st.messages[i].DocumentId == fromId {
			q.st.messages[i].DocumentId = toId
			n++
		}
	}
	return n, nil
}

func (q *memQueries) MarkMessageRead(ctx context.Context, id domain.MessageId, at time.Time) (bool, error) {
	defer q.guard()()
	for i, m := range q.st.messages {
		if m.Id != id {
			continue
		}
		if m.IsRead {
			return false, nil
		}
		ts := at
		q.st.messages[i].IsRead, q.st.messages[i].ReadAt = true, &ts
		return true, nil
	}
	return false, internal_errors.NotFound("message")
}

func (q *memQueries) CountUnread(ctx context.Context, userId domain.UserId) (int, error) {
	defer q.guard()()
	n := 0
	for _, m := range q.st.messages {
		if m.IsRead || q.st.documents[m.DocumentId].SupersededBy != nil {
			continue
		}
		if p, ok := q.st.participants[m.DocumentId].Holder(m.RecipientRole); ok && p.UserId == userId {
			n++
		}
	}
	return n, nil
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/stretchr/testify/require"
)

const (
	firmId      domain.FirmId = 1
	ownerUser   domain.UserId = 100
	accId       domain.AccountantId = 10
	accUser     domain.UserId = 200
	acc2Id      domain.AccountantId = 11
	acc2User    domain.UserId = 201
	clientId    domain.ClientId = 1000
	clientUser  domain.UserId = 300
	soloId      domain.ClientId = 1001 // client without an assigned accountant
	soloUser    domain.UserId = 301
	otherFirmId domain.FirmId = 2
	otherOwner  domain.UserId = 400
	otherAccId  domain.AccountantId = 20
	otherAcc    domain.UserId = 500
	otherClient domain.ClientId = 2000
	otherUser   domain.UserId = 600
	strangerId  domain.UserId = 999
)

var testLimits = Limits{MaxMessageLength: 200, MaxNoteLength: 50, MaxFileRefLength: 64}

// stepClock returns strictly increasing timestamps one second apart.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.NotificationKind
	for _, s := range n.sent {
		out = append(out, s.Kind)
	}
	return out
}

func (n *recordingNotifier) last() domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type memCache struct {
	mu          sync.Mutex
	counts      map[domain.UserId]int
	versions    map[domain.UserId]int64
	invalidated []domain.UserId
	getErr      error
	// beforeSet runs once, between the database count and the write.
	beforeSet func()
}

func newMemCache() *memCache {
	return &memCache{counts: map[domain.UserId]int{}, versions: map[domain.UserId]int64{}}
}

func (c *memCache) Get(ctx context.Context, userId domain.UserId) (int, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, 0, false, c.getErr
	}
	n, ok := c.counts[userId]
	return n, c.versions[userId], ok, nil
}

func (c *memCache) Set(ctx context.Context, userId domain.UserId, count int, version int64) error {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userId] != version {
		return nil
	}
	c.counts[userId] = count
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, userIds ...domain.UserId) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIds {
		delete(c.counts, id)
		c.versions[id]++
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}

func (c *memCache) cached(userId domain.UserId) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[userId]
	return n, ok
}

type env struct {
	store    *memStore
	notifier *recordingNotifier
	cache    *memCache
	docs     DocumentService
	msgs     MessageService
	sup      SupersessionService
	tenancy  TenancyService
}

var errBoom = errors.New("boom")

func newEnv(t *testing.T) *env {
	t.Helper()
	store := newMemStore()
	store.addFirm(domain.Firm{Id: firmId, Name: "Acme Books", OwnerUserId: ownerUser})
	store.addAccountant(domain.Accountant{Id: accId, FirmId: firmId, UserId: accUser})
	store.addAccountant(domain.Accountant{Id: acc2Id, FirmId: firmId, UserId: acc2User})
	assigned := accId
	store.addClient(domain.Client{Id: clientId, FirmId: firmId, UserId: clientUser, AccountantId: &assigned})
	store.addClient(domain.Client{Id: soloId, FirmId: firmId, UserId: soloUser})

	store.addFirm(domain.Firm{Id: otherFirmId, Name: "Other", OwnerUserId: otherOwner})
	store.addAccountant(domain.Accountant{Id: otherAccId, FirmId: otherFirmId, UserId: otherAcc})
	store.addClient(domain.Client{Id: otherClient, FirmId: otherFirmId, UserId: otherUser})

	notifier := &recordingNotifier{}
	cache := newMemCache()
	deps := Deps{Store: store, Notifier: notifier, Cache: cache, Limits: testLimits, Now: newStepClock().Now}
	return &env{
		store:    store,
		notifier: notifier,
		cache:    cache,
		docs:     NewDocument(deps),
		msgs:     NewMessage(deps),
		sup:      NewSupersession(deps),
		tenancy:  NewTenancy(deps),
	}
}

func (e *env) upload(t *testing.T, client domain.ClientId) *domain.Document {
	t.Helper()
	doc, err := e.docs.Create(context.Background(), client, "s3://bucket/receipt.pdf")
	require.NoError(t, err)
	return doc
}

func (e *env) send(t *testing.T, doc domain.DocumentId, from domain.UserId, to domain.Role, text string) *domain.Message {
	t.Helper()
	msg, err := e.msgs.Send(context.Background(), doc, from, to, text, false)
	require.NoError(t, err)
	return msg
}

func texts(msgs []domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

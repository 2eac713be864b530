package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/render"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	mw "github.com/ledgerdesk/ledgerdesk/shared/middleware"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockDocumentService struct {
	MockCreate           func(ctx context.Context, clientId domain.ClientId, fileRef domain.FileRef) (*domain.Document, error)
	MockGet              func(ctx context.Context, id domain.DocumentId, caller domain.UserId) (*domain.Document, error)
	MockListSince        func(ctx context.Context, caller domain.UserId, since *time.Time) ([]domain.Document, error)
	MockListParticipants func(ctx context.Context, id domain.DocumentId, caller domain.UserId) (domain.Participants, error)
	MockSetStatus        func(ctx context.Context, id domain.DocumentId, actor domain.UserId, cmd domain.StatusCommand) (*domain.Document, error)
}

func (m *MockDocumentService) Create(ctx context.Context, clientId domain.ClientId, fileRef domain.FileRef) (*domain.Document, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, clientId, fileRef)
	}
	return &domain.Document{}, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id domain.DocumentId, caller domain.UserId) (*domain.Document, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id, caller)
	}
	return &domain.Document{Id: id}, nil
}

func (m *MockDocumentService) ListSince(ctx context.Context, caller domain.UserId, since *time.Time) ([]domain.Document, error) {
	if m.MockListSince != nil {
		return m.MockListSince(ctx, caller, since)
	}
	return nil, nil
}

func (m *MockDocumentService) ListParticipants(ctx context.Context, id domain.DocumentId, caller domain.UserId) (domain.Participants, error) {
	if m.MockListParticipants != nil {
		return m.MockListParticipants(ctx, id, caller)
	}
	return nil, nil
}

func (m *MockDocumentService) SetStatus(ctx context.Context, id domain.DocumentId, actor domain.UserId, cmd domain.StatusCommand) (*domain.Document, error) {
	if m.MockSetStatus != nil {
		return m.MockSetStatus(ctx, id, actor, cmd)
	}
	return &domain.Document{Id: id, Status: cmd.Target()}, nil
}

type MockMessageService struct {
	MockSend        func(ctx context.Context, documentId domain.DocumentId, sender domain.UserId, recipient domain.Role, text domain.MsgText, isReply bool) (*domain.Message, error)
	MockList        func(ctx context.Context, documentId domain.DocumentId, caller domain.UserId, since *time.Time) ([]domain.Message, error)
	MockUnreadCount func(ctx context.Context, userId domain.UserId) (int, error)
	MockMarkRead    func(ctx context.Context, messageId domain.MessageId, userId domain.UserId) error
}

func (m *MockMessageService) Send(ctx context.Context, documentId domain.DocumentId, sender domain.UserId, recipient domain.Role, text domain.MsgText, isReply bool) (*domain.Message, error) {
	if m.MockSend != nil {
		return m.MockSend(ctx, documentId, sender, recipient, text, isReply)
	}
	return &domain.Message{DocumentId: documentId, SenderId: sender, RecipientRole: recipient, Text: text, IsReply: isReply}, nil
}

func (m *MockMessageService) List(ctx context.Context, documentId domain.DocumentId, caller domain.UserId, since *time.Time) ([]domain.Message, error) {
	if m.MockList != nil {
		return m.MockList(ctx, documentId, caller, since)
	}
	return nil, nil
}

func (m *MockMessageService) UnreadCount(ctx context.Context, userId domain.UserId) (int, error) {
	if m.MockUnreadCount != nil {
		return m.MockUnreadCount(ctx, userId)
	}
	return 0, nil
}

func (m *MockMessageService) MarkRead(ctx context.Context, messageId domain.MessageId, userId domain.UserId) error {
	if m.MockMarkRead != nil {
		return m.MockMarkRead(ctx, messageId, userId)
	}
	return nil
}

type MockSupersessionService struct {
	MockSupersede func(ctx context.Context, oldId, newId domain.DocumentId, caller domain.ClientId) (*domain.Document, error)
	MockReplace   func(ctx context.Context, oldId domain.DocumentId, caller domain.ClientId, fileRef domain.FileRef) (*domain.Document, error)
}

func (m *MockSupersessionService) Supersede(ctx context.Context, oldId, newId domain.DocumentId, caller domain.ClientId) (*domain.Document, error) {
	if m.MockSupersede != nil {
		return m.MockSupersede(ctx, oldId, newId, caller)
	}
	return &domain.Document{Id: newId}, nil
}

func (m *MockSupersessionService) Replace(ctx context.Context, oldId domain.DocumentId, caller domain.ClientId, fileRef domain.FileRef) (*domain.Document, error) {
	if m.MockReplace != nil {
		return m.MockReplace(ctx, oldId, caller, fileRef)
	}
	return &domain.Document{FileRef: fileRef}, nil
}

type MockTenancyService struct {
	MockClientByUser     func(ctx context.Context, userId domain.UserId) (*domain.Client, error)
	MockAccountantByUser func(ctx context.Context, userId domain.UserId) (*domain.Accountant, error)
	MockAssignAccountant func(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) (*domain.Client, error)
}

func (m *MockTenancyService) ClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error) {
	if m.MockClientByUser != nil {
		return m.MockClientByUser(ctx, userId)
	}
	return nil, internal_errors.NotFound("client")
}

func (m *MockTenancyService) AccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error) {
	if m.MockAccountantByUser != nil {
		return m.MockAccountantByUser(ctx, userId)
	}
	return nil, internal_errors.NotFound("accountant")
}

func (m *MockTenancyService) AssignAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) (*domain.Client, error) {
	if m.MockAssignAccountant != nil {
		return m.MockAssignAccountant(ctx, clientId, accountantId)
	}
	return &domain.Client{Id: clientId, AccountantId: accountantId}, nil
}

// --- Helpers ---

const (
	testUser   domain.UserId   = 300
	testClient domain.ClientId = 1000
)

// asClient makes the tenancy mock resolve every caller to testClient.
func (th *testHandler) asClient() {
	th.tenancy.MockClientByUser = func(ctx context.Context, userId domain.UserId) (*domain.Client, error) {
		return &domain.Client{Id: testClient, UserId: userId}, nil
	}
}

type testHandler struct {
	*Handler
	documents    *MockDocumentService
	messages     *MockMessageService
	supersession *MockSupersessionService
	tenancy      *MockTenancyService
	health       *MockHealthChecker
}

func newTestHandler() *testHandler {
	th := &testHandler{
		documents:    &MockDocumentService{},
		messages:     &MockMessageService{},
		supersession: &MockSupersessionService{},
		tenancy:      &MockTenancyService{},
		health:       &MockHealthChecker{},
	}
	th.Handler = New(th.documents, th.messages, th.supersession, th.tenancy, th.health, render.New())
	return th
}

// routes mirrors the production mount points without the auth middleware.
func (th *testHandler) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/documents", th.CreateDocument)
	r.Get("/v1/documents", th.ListDocuments)
	r.Get("/v1/documents/{id}", th.GetDocument)
	r.Get("/v1/documents/{id}/participants", th.ListParticipants)
	r.Post("/v1/documents/{id}/status", th.SetStatus)
	r.Post("/v1/documents/{id}/replace", th.ReplaceDocument)
	r.Post("/v1/documents/{id}/supersede", th.SupersedeDocument)
	r.Get("/v1/documents/{id}/messages", th.ListMessages)
	r.Post("/v1/documents/{id}/messages", th.SendMessage)
	r.Get("/v1/messages/unread_count", th.UnreadCount)
	r.Post("/v1/messages/{id}/read", th.MarkRead)
	return r
}

func (th *testHandler) do(t *testing.T, method, url string, body []byte, user *domain.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), mw.UserClaimsKey, user))
	}
	rr := httptest.NewRecorder()
	th.routes().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["code"]
}

package handler

import (
	"context"
	"net/http"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/render"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/service"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	mw "github.com/ledgerdesk/ledgerdesk/shared/middleware"
	"github.com/ledgerdesk/ledgerdesk/shared/utils"
)

// HealthChecker reports whether the database is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	document     service.DocumentService
	message      service.MessageService
	supersession service.SupersessionService
	tenancy      service.TenancyService
	health       HealthChecker
	renderer     *render.Renderer
}

func New(
	document service.DocumentService,
	message service.MessageService,
	supersession service.SupersessionService,
	tenancy service.TenancyService,
	health HealthChecker,
	renderer *render.Renderer,
) *Handler {
	return &Handler{
		document:     document,
		message:      message,
		supersession: supersession,
		tenancy:      tenancy,
		health:       health,
		renderer:     renderer,
	}
}

// caller returns the authenticated user or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		utils.WriteErrorAndStatusCode(w, unauthorized)
		return nil, false
	}
	return user, true
}

// callerClient resolves the client account behind the caller. Users without
// one are not allowed to upload or replace documents.
func (h *Handler) callerClient(w http.ResponseWriter, r *http.Request) (*domain.Client, bool) {
	user, ok := caller(w, r)
	if !ok {
		return nil, false
	}
	client, err := h.tenancy.ClientByUser(r.Context(), user.Id)
	if err != nil {
		if internal_errors.IsAny(err, internal_errors.ErrNotFound) {
			err = internal_errors.Forbidden("only clients can manage documents")
		}
		utils.WriteErrorAndStatusCode(w, err)
		return nil, false
	}
	return client, true
}

package handler

import (
	"net/http"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/api"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/ledgerdesk/ledgerdesk/shared/utils"
)

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body api.CreateDocumentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	client, ok := h.callerClient(w, r)
	if !ok {
		return
	}

	doc, err := h.document.Create(r.Context(), client.Id, body.FileRef)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.DocumentResponse{Document: *doc})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	since, err := utils.ParseSince(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	docs, err := h.document.ListSince(r.Context(), user.Id, since)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}

	utils.WriteJSON(w, http.StatusOK, api.DocumentsResponse{Documents: docs})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	doc, err := h.document.Get(r.Context(), id, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.DocumentResponse{Document: *doc})
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ps, err := h.document.ListParticipants(r.Context(), id, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if ps == nil {
		ps = domain.Participants{}
	}

	utils.WriteJSON(w, http.StatusOK, api.ParticipantsResponse{Participants: ps})
}

// statusCommand maps the flattened request onto a domain command.
func statusCommand(body api.SetStatusRequest) (domain.StatusCommand, error) {
	switch body.Action {
	case api.ActionPost:
		return domain.Post{}, nil
	case api.ActionRequestClarification:
		return domain.RequestClarification{Recipient: parseRole(body.RecipientRole), Message: body.Message}, nil
	case api.ActionRequestResend:
		return domain.RequestResend{Note: body.Note}, nil
	case string(domain.StatusPending):
		return nil, internal_errors.InvalidTransition("documents cannot be moved back to pending")
	}
	return nil, internal_errors.Validation("unknown action %q", body.Action)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.SetStatusRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	cmd, err := statusCommand(body)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	doc, err := h.document.SetStatus(r.Context(), id, user.Id, cmd)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.DocumentResponse{Document: *doc})
}

func (h *Handler) ReplaceDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.ReplaceDocumentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	client, ok := h.callerClient(w, r)
	if !ok {
		return
	}

	doc, err := h.supersession.Replace(r.Context(), id, client.Id, body.FileRef)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.DocumentResponse{Document: *doc})
}

func (h *Handler) SupersedeDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.SupersedeRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	client, ok := h.callerClient(w, r)
	if !ok {
		return
	}

	doc, err := h.supersession.Supersede(r.Context(), id, body.NewDocumentId, client.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.DocumentResponse{Document: *doc})
}

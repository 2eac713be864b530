package handler

import (
	"net/http"

	"github.com/ledgerdesk/ledgerdesk/shared/api"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/ledgerdesk/ledgerdesk/shared/utils"
)

func (h *Handler) messageResponse(m domain.Message) api.MessageResponse {
	resp := api.MessageResponse{Message: m}
	if h.renderer != nil {
		resp.TextHTML = h.renderer.HTML(m.Text)
	}
	return resp
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.SendMessageRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	msg, err := h.message.Send(r.Context(), id, user.Id, parseRole(body.RecipientRole), body.Text, body.IsReply)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, h.messageResponse(*msg))
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseDocumentId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	since, err := utils.ParseSince(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	msgs, err := h.message.List(r.Context(), id, user.Id, since)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := api.MessagesResponse{Messages: make([]api.MessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, h.messageResponse(m))
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}

	count, err := h.message.UnreadCount(r.Context(), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, api.UnreadCountResponse{Count: count})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := parseMessageId(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.message.MarkRead(r.Context(), id, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

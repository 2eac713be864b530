package api

import (
	"github.com/google/uuid"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

type CreateDocumentRequest struct {
	FileRef string `json:"file_ref" validate:"required"`
}

type ReplaceDocumentRequest struct {
	FileRef string `json:"file_ref" validate:"required"`
}

type SupersedeRequest struct {
	NewDocumentId uuid.UUID `json:"new_document_id" validate:"required"`
}

// Status actions accepted by SetStatusRequest.Action
const (
	ActionPost                 = "post"
	ActionRequestClarification = "request_clarification"
	ActionRequestResend        = "request_resend"
)

// SetStatusRequest is flattened on the wire; the handler turns it into a
// domain.StatusCommand. RecipientRole and Message are used by
// request_clarification, Note by request_resend.
type SetStatusRequest struct {
	Action        string `json:"action" validate:"required"`
	RecipientRole string `json:"recipient_role,omitempty"`
	Message       string `json:"message,omitempty"`
	Note          string `json:"note,omitempty"`
}

type DocumentResponse struct {
	domain.Document
}

type DocumentsResponse struct {
	Documents []domain.Document `json:"documents"`
}

type ParticipantsResponse struct {
	Participants domain.Participants `json:"participants"`
}

package api

import "github.com/ledgerdesk/ledgerdesk/shared/domain"

type SendMessageRequest struct {
	RecipientRole string `json:"recipient_role" validate:"required"`
	Text          string `json:"text" validate:"required"`
	IsReply       bool   `json:"is_reply"`
}

// MessageResponse carries the raw text plus its sanitized HTML rendering.
type MessageResponse struct {
	domain.Message
	TextHTML string `json:"text_html"`
}

type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

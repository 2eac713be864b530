package domain

import "time"

// Message is a clarification message. It is addressed to a role, not to a
// user: RecipientUserId is filled in on read from the document's current
// participant set and is never stored. OriginDocumentId is the document
// the message was written on and does not follow supersession.
type Message struct {
	Id               MessageId  `json:"id"`
	DocumentId       DocumentId `json:"document_id"`
	OriginDocumentId DocumentId `json:"origin_document_id"`
	SenderId         UserId     `json:"sender_id"`
	SenderRole       Role       `json:"sender_role"`
	RecipientRole    Role       `json:"recipient_role"`
	RecipientUserId  *UserId    `json:"recipient_user_id,omitempty"`
	Text             MsgText    `json:"text"`
	IsReply          bool       `json:"is_reply"`
	IsRead           bool       `json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

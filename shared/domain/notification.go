package domain

import "time"

type NotificationKind string

const (
	NotifyDocumentPosted         NotificationKind = "document.posted"
	NotifyClarificationRequested NotificationKind = "document.clarification_requested"
	NotifyResendRequested        NotificationKind = "document.resend_requested"
	NotifyDocumentSuperseded     NotificationKind = "document.superseded"
	NotifyMessageCreated         NotificationKind = "message.created"
)

// Notification is handed to the delivery pipeline once the originating
// transaction has committed.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	DocumentId DocumentId       `json:"document_id"`
	Recipients []UserId         `json:"recipients"`
	MessageId  *MessageId       `json:"message_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

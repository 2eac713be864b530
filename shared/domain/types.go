package domain

import "github.com/google/uuid"

type (
	UserId       = int64
	FirmId       = int64
	AccountantId = int64
	ClientId     = int64

	DocumentId = uuid.UUID
	MessageId  = int64

	FileRef = string
	MsgText = string
)

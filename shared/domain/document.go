package domain

import "time"

type DocumentStatus string

const (
	StatusPending             DocumentStatus = "pending"
	StatusPosted              DocumentStatus = "posted"
	StatusClarificationNeeded DocumentStatus = "clarification_needed"
	StatusResendRequested     DocumentStatus = "resend_requested"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPosted, StatusClarificationNeeded, StatusResendRequested:
		return true
	}
	return false
}

type Document struct {
	Id            DocumentId     `json:"id"`
	ClientId      ClientId       `json:"client_id"`
	Status        DocumentStatus `json:"status"`
	Notes         string         `json:"notes"`
	FileRef       FileRef        `json:"file_ref"`
	UploadedAt    time.Time      `json:"uploaded_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	LastMessageAt *time.Time     `json:"last_message_at,omitempty"`
	SupersededBy  *DocumentId    `json:"superseded_by,omitempty"`
	SupersededAt  *time.Time     `json:"superseded_at,omitempty"`

	Participants Participants `json:"participants,omitempty"`
}

func (d *Document) IsSuperseded() bool {
	return d.SupersededBy != nil
}

// Participant is one user's membership in a document's thread.
// Historical participants were carried over by supersession after leaving
// the tenancy graph: they keep read access but can no longer send or be
// addressed.
type Participant struct {
	DocumentId DocumentId `json:"document_id"`
	UserId     UserId     `json:"user_id"`
	Role       Role       `json:"role"`
	Historical bool       `json:"historical"`
}

type Participants []Participant

// Member returns the caller's row, historical or not.
func (ps Participants) Member(userId UserId) (Participant, bool) {
	for _, p := range ps {
		if p.UserId == userId {
			return p, true
		}
	}
	return Participant{}, false
}

// Active returns the caller's row only if it may still send.
func (ps Participants) Active(userId UserId) (Participant, bool) {
	p, ok := ps.Member(userId)
	if !ok || p.Historical {
		return Participant{}, false
	}
	return p, true
}

// Holder resolves a role to the user currently occupying it.
func (ps Participants) Holder(role Role) (Participant, bool) {
	for _, p := range ps {
		if p.Role == role && !p.Historical {
			return p, true
		}
	}
	return Participant{}, false
}

func (ps Participants) UserIds() []UserId {
	ids := make([]UserId, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.UserId)
	}
	return ids
}

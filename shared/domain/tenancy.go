package domain

// Firm is the tenant root. OwnerUserId holds the firm role on every
// document created for one of the firm's clients.
type Firm struct {
	Id          FirmId `json:"id"`
	Name        string `json:"name"`
	OwnerUserId UserId `json:"owner_user_id"`
}

type Accountant struct {
	Id     AccountantId `json:"id"`
	FirmId FirmId       `json:"firm_id"`
	UserId UserId       `json:"user_id"`
}

type Client struct {
	Id           ClientId      `json:"id"`
	FirmId       FirmId        `json:"firm_id"`
	UserId       UserId        `json:"user_id"`
	AccountantId *AccountantId `json:"accountant_id,omitempty"`
}

// ClientSnapshot is the slice of the tenancy graph a new document's
// participant set is derived from. It is read inside the creating
// transaction so the set reflects the graph at upload time.
type ClientSnapshot struct {
	Client           Client
	FirmOwnerUserId  UserId
	AccountantUserId *UserId
}

package domain

// StatusCommand is the only way to move a document between states. Each
// variant carries exactly the data its transition needs, so a clarification
// request cannot be issued without its message.
type StatusCommand interface {
	Target() DocumentStatus
	isStatusCommand()
}

type Post struct{}

type RequestClarification struct {
	Recipient Role
	Message   MsgText
}

type RequestResend struct {
	Note string
}

func (Post) Target() DocumentStatus                 { return StatusPosted }
func (RequestClarification) Target() DocumentStatus { return StatusClarificationNeeded }
func (RequestResend) Target() DocumentStatus        { return StatusResendRequested }

func (Post) isStatusCommand()                 {}
func (RequestClarification) isStatusCommand() {}
func (RequestResend) isStatusCommand()        {}

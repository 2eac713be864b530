package domain

// User is the authenticated caller as decoded from a bearer token.
// Accounts themselves live in the identity provider.
type User struct {
	Id    UserId
	Email string
}

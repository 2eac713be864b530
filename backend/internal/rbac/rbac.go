// Package rbac holds the clarification permission matrix. The firm is the
// mandatory relay between client and accountant: neither may address the
// other directly.
package rbac

import "github.com/ledgerdesk/ledgerdesk/shared/domain"

var messageMatrix = map[domain.Role][]domain.Role{
	domain.RoleClient:     {domain.RoleFirm},
	domain.RoleFirm:       {domain.RoleClient, domain.RoleAccountant},
	domain.RoleAccountant: {domain.RoleFirm},
}

// CanMessage reports whether sender may address recipient.
func CanMessage(sender, recipient domain.Role) bool {
	for _, r := range messageMatrix[sender] {
		if r == recipient {
			return true
		}
	}
	return false
}

// AllowedRecipients lists the roles a sender may address, for clients that
// build recipient pickers.
func AllowedRecipients(sender domain.Role) []domain.Role {
	allowed := messageMatrix[sender]
	out := make([]domain.Role, len(allowed))
	copy(out, allowed)
	return out
}

package service

import (
	"context"
	"errors"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

// ResolveParticipants derives a new document's participant set from the
// tenancy graph: the client, the firm owner and the assigned accountant if
// there is one. A user that fills several roles keeps the first.
func ResolveParticipants(documentId domain.DocumentId, snap domain.ClientSnapshot) domain.Participants {
	ps := domain.Participants{
		{DocumentId: documentId, UserId: snap.Client.UserId, Role: domain.RoleClient},
	}
	add := func(userId domain.UserId, role domain.Role) {
		if _, taken := ps.Member(userId); taken {
			return
		}
		ps = append(ps, domain.Participant{DocumentId: documentId, UserId: userId, Role: role})
	}
	add(snap.FirmOwnerUserId, domain.RoleFirm)
	if snap.AccountantUserId != nil {
		add(*snap.AccountantUserId, domain.RoleAccountant)
	}
	return ps
}

// mergeParticipants returns the rows of previous that must be added to
// current so the thread keeps its audience. Users already in current keep
// their row. A user whose role is vacant in current and who is still linked
// to the client comes over active; everyone else comes over historical.
func mergeParticipants(documentId domain.DocumentId, current, previous domain.Participants, linked func(domain.Participant) bool) domain.Participants {
	var carried domain.Participants
	for _, p := range previous {
		if _, ok := current.Member(p.UserId); ok {
			continue
		}
		row := domain.Participant{DocumentId: documentId, UserId: p.UserId, Role: p.Role, Historical: true}
		if !p.Historical && linked(p) {
			_, heldNow := current.Holder(p.Role)
			_, heldCarried := carried.Holder(p.Role)
			row.Historical = heldNow || heldCarried
		}
		carried = append(carried, row)
	}
	return carried
}

// linkedParticipants reports which of ps are still tied to the client in
// the tenancy graph: the client itself, the current firm owner and
// accountants still employed by the client's firm.
func linkedParticipants(ctx context.Context, q Queries, snap domain.ClientSnapshot, ps domain.Participants) (map[domain.UserId]bool, error) {
	linked := make(map[domain.UserId]bool, len(ps))
	for _, p := range ps {
		switch p.Role {
		case domain.RoleClient:
			linked[p.UserId] = p.UserId == snap.Client.UserId
		case domain.RoleFirm:
			linked[p.UserId] = p.UserId == snap.FirmOwnerUserId
		case domain.RoleAccountant:
			acc, err := q.GetAccountantByUser(ctx, p.UserId)
			if errors.Is(err, internal_errors.ErrNotFound) {
				linked[p.UserId] = false
				continue
			}
			if err != nil {
				return nil, err
			}
			linked[p.UserId] = acc.FirmId == snap.Client.FirmId
		}
	}
	return linked, nil
}

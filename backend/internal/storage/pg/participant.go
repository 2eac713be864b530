package pg

import (
	"context"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	"github.com/lib/pq"
)

func (s *queries) InsertParticipants(ctx context.Context, participants domain.Participants) error {
	if len(participants) == 0 {
		return nil
	}
	var (
		docIds     = make([]string, len(participants))
		userIds    = make([]int64, len(participants))
		roles      = make([]string, len(participants))
		historical = make([]bool, len(participants))
	)
	for i, p := range participants {
		docIds[i], userIds[i], roles[i], historical[i] = p.DocumentId.String(), p.UserId, string(p.Role), p.Historical
	}
	_, err := s.q.ExecContext(ctx, `
	INSERT INTO document_participants(document_id, user_id, role, historical)
	SELECT * FROM unnest($1::uuid[], $2::bigint[], $3::text[], $4::boolean[])`,
		pq.Array(docIds), pq.Array(userIds), pq.Array(roles), pq.Array(historical))
	return mapError(err)
}

func (s *queries) ListParticipants(ctx context.Context, documentId domain.DocumentId) (domain.Participants, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT document_id, user_id, role, historical
	FROM document_participants
	WHERE document_id = $1
	ORDER BY historical, CASE role WHEN 'client' THEN 0 WHEN 'firm' THEN 1 ELSE 2 END, user_id`, documentId)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	ps := domain.Participants{}
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.DocumentId, &p.UserId, &p.Role, &p.Historical); err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

const messageColumns = `id, document_id, origin_id, sender_id, sender_role, recipient_role, text, is_reply, is_read, read_at, created_at`

func scanMessage(row scanner) (*domain.Message, error) {
	var (
		m      domain.Message
		readAt sql.NullTime
	)
	err := row.Scan(&m.Id, &m.DocumentId, &m.OriginDocumentId, &m.SenderId, &m.SenderRole, &m.RecipientRole, &m.Text,
		&m.IsReply, &m.IsRead, &readAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}

// InsertMessage records msg.DocumentId as the message's origin. The origin
// is never touched by ReparentMessages.
func (s *queries) InsertMessage(ctx context.Context, msg *domain.Message) error {
	msg.OriginDocumentId = msg.DocumentId
	err := s.q.QueryRowContext(ctx, `
	INSERT INTO clarification_messages(document_id, origin_id, sender_id, sender_role, recipient_role, text, is_reply, created_at)
	VALUES($1, $1, $2, $3, $4, $5, $6, $7)
	RETURNING id`,
		msg.DocumentId, msg.SenderId, msg.SenderRole, msg.RecipientRole, msg.Text, msg.IsReply, msg.CreatedAt).Scan(&msg.Id)
	return mapError(err)
}

func (s *queries) GetMessage(ctx context.Context, id domain.MessageId) (*domain.Message, error) {
	m, err := scanMessage(s.q.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM clarification_messages WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "message")
	}
	return m, nil
}

func (s *queries) ListMessages(ctx context.Context, documentId domain.DocumentId, since, until *time.Time) ([]domain.Message, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT `+messageColumns+`
	FROM clarification_messages
	WHERE document_id = $1
	  AND ($2::timestamptz IS NULL OR created_at > $2)
	  AND ($3::timestamptz IS NULL OR created_at <= $3)
	ORDER BY created_at, id`, documentId, since, until)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (s *queries) ReparentMessages(ctx context.Context, fromId, toId domain.DocumentId) (int64, error) {
	result, err := s.q.ExecContext(ctx, `UPDATE clarification_messages SET document_id = $2 WHERE document_id = $1`, fromId, toId)
	if err != nil {
		return 0, mapError(err)
	}
	return result.RowsAffected()
}

func (s *queries) MarkMessageRead(ctx context.Context, id domain.MessageId, at time.Time) (bool, error) {
	var changed bool
	err := s.q.QueryRowContext(ctx, `
	WITH target AS (SELECT id, is_read FROM clarification_messages WHERE id = $1),
	     updated AS (
		UPDATE clarification_messages SET is_read = TRUE, read_at = $2
		WHERE id = $1 AND NOT is_read
		RETURNING id
	     )
	SELECT EXISTS (SELECT 1 FROM updated) FROM target`, id, at).Scan(&changed)
	if err != nil {
		return false, notFound(err, "message")
	}
	return changed, nil
}

func (s *queries) CountUnread(ctx context.Context, userId domain.UserId) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
	SELECT count(*)
	FROM clarification_messages m
	JOIN documents d ON d.id = m.document_id AND d.superseded_by IS NULL
	JOIN document_participants p ON p.document_id = m.document_id AND p.role = m.recipient_role AND NOT p.historical
	WHERE p.user_id = $1 AND NOT m.is_read`, userId).Scan(&n)
	return n, mapError(err)
}

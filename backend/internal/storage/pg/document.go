package pg

import (
	"context"
	"database/sql"
	"time"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"

	"github.com/google/uuid"
)

const documentColumns = `id, client_id, status, notes, file_ref, uploaded_at, updated_at, last_message_at, superseded_by, superseded_at`

func scanDocument(row scanner) (*domain.Document, error) {
	var (
		d             domain.Document
		lastMessageAt sql.NullTime
		supersededBy  uuid.NullUUID
		supersededAt  sql.NullTime
	)
	err := row.Scan(&d.Id, &d.ClientId, &d.Status, &d.Notes, &d.FileRef, &d.UploadedAt, &d.UpdatedAt,
		&lastMessageAt, &supersededBy, &supersededAt)
	if err != nil {
		return nil, err
	}
	if lastMessageAt.Valid {
		d.LastMessageAt = &lastMessageAt.Time
	}
	if supersededBy.Valid {
		d.SupersededBy = &supersededBy.UUID
	}
	if supersededAt.Valid {
		d.SupersededAt = &supersededAt.Time
	}
	return &d, nil
}

func (s *queries) InsertDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.q.ExecContext(ctx, `
	INSERT INTO documents(id, client_id, status, notes, file_ref, uploaded_at, updated_at)
	VALUES($1, $2, $3, $4, $5, $6, $7)`,
		doc.Id, doc.ClientId, doc.Status, doc.Notes, doc.FileRef, doc.UploadedAt, doc.UpdatedAt)
	return mapError(err)
}

func (s *queries) GetDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error) {
	d, err := scanDocument(s.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "document")
	}
	return d, nil
}

func (s *queries) LockDocument(ctx context.Context, id domain.DocumentId) (*domain.Document, error) {
	d, err := scanDocument(s.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "document")
	}
	return d, nil
}

func (s *queries) UpdateDocumentStatus(ctx context.Context, id domain.DocumentId, status domain.DocumentStatus, notes *string, at time.Time) error {
	result, err := s.q.ExecContext(ctx, `
	UPDATE documents SET
		status = $2,
		notes = COALESCE($3, notes),
		updated_at = $4
	WHERE id = $1`, id, status, notes, at)
	return expectOne(result, err, "document")
}

func (s *queries) TouchDocument(ctx context.Context, id domain.DocumentId, at time.Time) error {
	result, err := s.q.ExecContext(ctx, `
	UPDATE documents SET last_message_at = GREATEST(last_message_at, $2)
	WHERE id = $1`, id, at)
	return expectOne(result, err, "document")
}

func (s *queries) MarkSuperseded(ctx context.Context, oldId, newId domain.DocumentId, at time.Time) error {
	result, err := s.q.ExecContext(ctx, `
	UPDATE documents SET
		superseded_by = $2,
		superseded_at = $3,
		updated_at = $3
	WHERE id = $1 AND superseded_by IS NULL`, oldId, newId, at)
	if err != nil {
		return mapError(err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return internal_errors.ErrAlreadySuperseded
	}
	return nil
}

func (s *queries) IsSupersessionTarget(ctx context.Context, id domain.DocumentId) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE superseded_by = $1)`, id).Scan(&exists)
	return exists, mapError(err)
}

func (s *queries) ListDocumentsForUser(ctx context.Context, userId domain.UserId, since *time.Time) ([]domain.Document, error) {
	rows, err := s.q.QueryContext(ctx, `
	SELECT `+documentColumns+`
	FROM documents d
	WHERE EXISTS (SELECT 1 FROM document_participants p WHERE p.document_id = d.id AND p.user_id = $1)
	  AND ($2::timestamptz IS NULL OR GREATEST(d.updated_at, d.last_message_at) > $2)
	ORDER BY GREATEST(d.updated_at, d.last_message_at) DESC, d.id`, userId, since)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func expectOne(result sql.Result, err error, what string) error {
	if err != nil {
		return mapError(err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return internal_errors.NotFound(what)
	}
	return nil
}

package pg

import (
	"context"
	"database/sql"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

func (s *queries) GetFirm(ctx context.Context, id domain.FirmId) (*domain.Firm, error) {
	var f domain.Firm
	err := s.q.QueryRowContext(ctx, `
	SELECT id, name, owner_user_id
	FROM firms
	WHERE id = $1`, id).Scan(&f.Id, &f.Name, &f.OwnerUserId)
	if err != nil {
		return nil, notFound(err, "firm")
	}
	return &f, nil
}

func (s *queries) GetAccountant(ctx context.Context, id domain.AccountantId) (*domain.Accountant, error) {
	var a domain.Accountant
	err := s.q.QueryRowContext(ctx, `
	SELECT id, firm_id, user_id
	FROM accountants
	WHERE id = $1`, id).Scan(&a.Id, &a.FirmId, &a.UserId)
	if err != nil {
		return nil, notFound(err, "accountant")
	}
	return &a, nil
}

func (s *queries) GetAccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error) {
	var a domain.Accountant
	err := s.q.QueryRowContext(ctx, `
	SELECT id, firm_id, user_id
	FROM accountants
	WHERE user_id = $1`, userId).Scan(&a.Id, &a.FirmId, &a.UserId)
	if err != nil {
		return nil, notFound(err, "accountant")
	}
	return &a, nil
}

const clientColumns = `id, firm_id, user_id, accountant_id`

func scanClient(row scanner) (*domain.Client, error) {
	var (
		c   domain.Client
		acc sql.NullInt64
	)
	if err := row.Scan(&c.Id, &c.FirmId, &c.UserId, &acc); err != nil {
		return nil, err
	}
	if acc.Valid {
		c.AccountantId = &acc.Int64
	}
	return &c, nil
}

func (s *queries) GetClient(ctx context.Context, id domain.ClientId) (*domain.Client, error) {
	c, err := scanClient(s.q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "client")
	}
	return c, nil
}

func (s *queries) GetClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error) {
	c, err := scanClient(s.q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = $1`, userId))
	if err != nil {
		return nil, notFound(err, "client")
	}
	return c, nil
}

func (s *queries) SetClientAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) error {
	result, err := s.q.ExecContext(ctx, `UPDATE clients SET accountant_id = $2 WHERE id = $1`, clientId, accountantId)
	if err != nil {
		return mapError(err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return internal_errors.NotFound("client")
	}
	return nil
}

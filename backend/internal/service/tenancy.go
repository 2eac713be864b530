package service

import (
	"context"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
)

type TenancyService interface {
	ClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error)
	AccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error)
	AssignAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) (*domain.Client, error)
}

type Tenancy struct {
	core
}

func NewTenancy(deps Deps) TenancyService {
	return &Tenancy{newCore(deps, "tenancy")}
}

func (s *Tenancy) ClientByUser(ctx context.Context, userId domain.UserId) (*domain.Client, error) {
	return s.store.GetClientByUser(ctx, userId)
}

func (s *Tenancy) AccountantByUser(ctx context.Context, userId domain.UserId) (*domain.Accountant, error) {
	return s.store.GetAccountantByUser(ctx, userId)
}

// AssignAccountant changes who new documents of the client are routed to.
// Existing documents keep the participant set they were created with.
func (s *Tenancy) AssignAccountant(ctx context.Context, clientId domain.ClientId, accountantId *domain.AccountantId) (*domain.Client, error) {
	var client *domain.Client
	err := s.store.WithTx(ctx, func(q Queries) error {
		var err error
		if client, err = q.GetClient(ctx, clientId); err != nil {
			return err
		}
		if accountantId != nil {
			acc, err := q.GetAccountant(ctx, *accountantId)
			if err != nil {
				return err
			}
			if acc.FirmId != client.FirmId {
				return internal_errors.Validation("accountant %d works for another firm", *accountantId)
			}
		}
		if err := q.SetClientAccountant(ctx, clientId, accountantId); err != nil {
			return err
		}
		client.AccountantId = accountantId
		return nil
	})
	if err != nil {
		return nil, err
	}
	if accountantId != nil {
		s.log.Info("accountant assigned", "client_id", clientId, "accountant_id", *accountantId)
	} else {
		s.log.Info("accountant unassigned", "client_id", clientId)
	}
	return client, nil
}

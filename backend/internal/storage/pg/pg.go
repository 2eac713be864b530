package pg

import (
	"context"
	"database/sql"
	"errors"

	internal_errors "github.com/ledgerdesk/ledgerdesk/backend/internal/errors"
	"github.com/ledgerdesk/ledgerdesk/backend/internal/service"
	"github.com/ledgerdesk/ledgerdesk/shared/config"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
	"github.com/ledgerdesk/ledgerdesk/shared/storage/pg"

	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	_ "github.com/lib/pq"
)

// Storage implements service.Store on PostgreSQL. Statements issued
// directly on Storage run on the pool; WithTx hands out the same queries
// bound to one transaction.
type Storage struct {
	db *sql.DB
	queries
}

type queries struct {
	q pg.Querier
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	return NewWithPool(ctx, cfg, pg.DefaultConnectionConfig())
}

func NewWithPool(ctx context.Context, cfg *config.Config, connCfg pg.ConnectionConfig) (*Storage, error) {
	logger.Log.Info("connecting to postgres", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := pg.Connect(ctx, cfg.Private.Pg, connCfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("successfully connected to postgres")
	return &Storage{db: db, queries: queries{q: db}}, nil
}

func (s *Storage) WithTx(ctx context.Context, fn func(q service.Queries) error) error {
	err := pg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&queries{q: tx})
	})
	return mapError(err)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// mapError turns lost races into Conflict. Typed errors pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var typed *shared_errors.ErrorWithStatusCode
	if errors.As(err, &typed) {
		return err
	}
	if pg.IsContention(err) {
		return internal_errors.Conflict("concurrent update, reload and retry")
	}
	if pg.ErrorCode(err) == pg.CodeUniqueViolation {
		return internal_errors.Conflict("concurrent update, reload and retry")
	}
	return err
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return internal_errors.NotFound(what)
	}
	return mapError(err)
}

type scanner interface {
	Scan(dest ...any) error
}

package sessionstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/session"
)

// PostgresStore keeps entries in the portal_storage table.
type PostgresStore struct {
	db *sqlx.DB
	ns string
}

var _ session.Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB, namespace string) *PostgresStore {
	return &PostgresStore{db: db, ns: namespace}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM portal_storage WHERE context = $1 AND key = $2`

	var val string
	if err := s.db.GetContext(ctx, &val, q, s.ns, key); err != nil {
		if err == sql.ErrNoRows {
			return "", session.ErrNoEntry
		}
		return "", errors.Wrap(err, "selecting portal_storage entry")
	}
	return val, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	const q = `
	INSERT INTO portal_storage (context, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (context, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, q, s.ns, key, value)
	return errors.Wrap(err, "upserting portal_storage entry")
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM portal_storage WHERE context = $1 AND key = $2`

	_, err := s.db.ExecContext(ctx, q, s.ns, key)
	return errors.Wrap(err, "deleting portal_storage entry")
}

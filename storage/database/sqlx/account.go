package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/account"
)

const uniqueViolation = "23505"

// dbAccount is a row of the accounts table.
type dbAccount struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	IsActive     bool         `db:"is_active"`
	PasswordHash []byte       `db:"password_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
	LastLogin    sql.NullTime `db:"last_login"`
}

func toDBAccount(acc account.Account) dbAccount {
	return dbAccount{
		ID:           acc.ID,
		Name:         acc.Name,
		Email:        acc.Email,
		IsActive:     acc.IsActive,
		PasswordHash: acc.PasswordHash,
		CreatedAt:    acc.CreatedAt,
		UpdatedAt:    acc.UpdatedAt,
		LastLogin:    sql.NullTime{Time: acc.LastLogin, Valid: !acc.LastLogin.IsZero()},
	}
}

func (row dbAccount) toAccount() account.Account {
	acc := account.Account{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		acc.LastLogin = row.LastLogin.Time.UTC()
	}
	return acc
}

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil)

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

const accountColumns = `id, name, email, is_active, password_hash, created_at, updated_at, last_login`

func (repo *accountRepository) CreateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	const q = `
	INSERT INTO accounts (` + accountColumns + `)
	VALUES (gen_random_uuid(), :name, :email, :is_active, :password_hash, :created_at, :updated_at, :last_login)
	RETURNING id`

	rows, err := repo.db.NamedQueryContext(ctx, q, toDBAccount(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&acc.ID); err != nil {
			return account.Account{}, errors.Wrap(err, "scanning account id")
		}
	}
	return acc, errors.Wrap(rows.Err(), "inserting account")
}

func (repo *accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts ORDER BY email`

	var rows []dbAccount
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting accounts")
	}
	accs := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, row.toAccount())
	}
	return accs, nil
}

func (repo *accountRepository) get(ctx context.Context, q string, arg interface{}) (account.Account, error) {
	var row dbAccount
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "selecting account")
	}
	return row.toAccount(), nil
}

func (repo *accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	return repo.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id::text = $1`, id)
}

func (repo *accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (repo *accountRepository) UpdateAccount(ctx context.Context, acc account.Account) (account.Account, error) {
	const q = `
	UPDATE accounts
	SET name = :name, email = :email, is_active = :is_active, password_hash = :password_hash,
		updated_at = :updated_at, last_login = :last_login
	WHERE id::text = :id`

	res, err := repo.db.NamedExecContext(ctx, q, toDBAccount(acc))
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.GetAccountByID(ctx, acc.ID)
}

func (repo *accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM accounts WHERE id::text = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting accounts")
}

func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

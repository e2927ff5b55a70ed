package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/account"
)

// AccountRepository stores accounts in the accounts table.
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account with a bcrypt-hashed password.
//
// Precondition: username must be non-empty; password must be non-empty.
// Postcondition: Returns the created Account with ID and CreatedAt set,
// or account.ErrAccountExists if the username is taken.
func (r *AccountRepository) Create(ctx context.Context, username, password string) (account.Account, error) {
	hash, err := account.HashPassword(password)
	if err != nil {
		return account.Account{}, fmt.Errorf("hashing password: %w", err)
	}

	var acct account.Account
	err = r.db.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, password_hash, created_at`,
		username, hash,
	).Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &acct.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return account.Account{}, account.ErrAccountExists
		}
		return account.Account{}, fmt.Errorf("inserting account: %w", err)
	}
	return acct, nil
}

// Authenticate verifies credentials and returns the matching account.
//
// Postcondition: Returns the Account if credentials are valid,
// account.ErrAccountNotFound if the username doesn't exist,
// or account.ErrInvalidCredentials if the password is wrong.
func (r *AccountRepository) Authenticate(ctx context.Context, username, password string) (account.Account, error) {
	acct, err := r.GetByUsername(ctx, username)
	if err != nil {
		return account.Account{}, err
	}
	if !account.CheckPassword(password, acct.PasswordHash) {
		return account.Account{}, account.ErrInvalidCredentials
	}
	return acct, nil
}

// GetByUsername retrieves an account by username.
//
// Postcondition: Returns the Account or account.ErrAccountNotFound.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (account.Account, error) {
	var acct account.Account
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM accounts WHERE username = $1`,
		username,
	).Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &acct.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return acct, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation.
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

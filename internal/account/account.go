// Package account defines login accounts, password hashing and the
// repository boundary account storage implements.
package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccountNotFound is returned when an account lookup yields no results.
var ErrAccountNotFound = errors.New("account not found")

// ErrAccountExists is returned when attempting to create a duplicate username.
var ErrAccountExists = errors.New("account already exists")

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is a login identity. The username doubles as the player name.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository creates and authenticates accounts.
type Repository interface {
	// Create stores a new account with a hashed password, or returns
	// ErrAccountExists.
	Create(ctx context.Context, username, password string) (Account, error)
	// Authenticate returns the account whose password matches, or
	// ErrAccountNotFound / ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (Account, error)
}

// HashPassword creates a bcrypt hash of the given password.
//
// Precondition: password must be non-empty.
// Postcondition: Returns a bcrypt hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
//
// Postcondition: Returns true if password matches the hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// MemoryRepository is an in-process Repository.
// All methods are safe for concurrent use.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]Account
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]Account)}
}

func (m *MemoryRepository) Create(_ context.Context, username, password string) (Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, fmt.Errorf("hashing password: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; ok {
		return Account{}, ErrAccountExists
	}
	m.nextID++
	acct := Account{ID: m.nextID, Username: username, PasswordHash: hash, CreatedAt: time.Now()}
	m.accounts[username] = acct
	return acct, nil
}

func (m *MemoryRepository) Authenticate(_ context.Context, username, password string) (Account, error) {
	m.mu.Lock()
	acct, ok := m.accounts[username]
	m.mu.Unlock()
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	if !CheckPassword(password, acct.PasswordHash) {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

package domain

import (
	"context"
	"time"
)

// User represents a registered account. PasswordHash is the bcrypt hash of
// the password; the plaintext is never persisted. AvatarKey points into the
// FileStore and is empty when no avatar is set.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Age          int64
	AvatarKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users and their
// session-token list. Tokens are kept in issuance order; a token authenticates
// only while it is present in the list, which is what makes per-session and
// all-session logout effective even though the token signature alone would
// still verify.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	// Delete removes the user. Session tokens and owned tasks go with it;
	// once Delete returns, no task owned by the user remains reachable.
	Delete(ctx context.Context, id int64) error

	AddToken(ctx context.Context, userID int64, token string) error
	// RemoveToken deletes the matching token. Removing an absent token is
	// not an error.
	RemoveToken(ctx context.Context, userID int64, token string) error
	ClearTokens(ctx context.Context, userID int64) error
	HasToken(ctx context.Context, userID int64, token string) (bool, error)
	ListTokens(ctx context.Context, userID int64) ([]string, error)
}

package user

import "context"

// Store persists users. Lookups of unknown users return
// errors.ErrUserNotFound; CreateUser returns errors.ErrUsernameTaken.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	// GetUsersByIDs returns the users found, keyed by id. Missing ids are skipped.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

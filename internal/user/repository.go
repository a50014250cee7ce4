package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fonnect/internal/db"
	apperrors "fonnect/internal/errors"
)

// Repository is the PostgreSQL Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, username, fullname, password, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Fullname, user.Password, user.Color, user.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := "SELECT id, username, fullname, password, color, created_at FROM users WHERE username = $1"
	return r.getOne(ctx, query, username)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	query := "SELECT id, username, fullname, password, color, created_at FROM users WHERE id = $1"
	return r.getOne(ctx, query, id)
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (*User, error) {
	u := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Fullname, &u.Password, &u.Color, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*User, error) {
	out := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, username, fullname, color, created_at FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u := &User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.Color, &u.CreatedAt); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	q := `SELECT id, username, fullname, color, created_at FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname, &u.Color, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

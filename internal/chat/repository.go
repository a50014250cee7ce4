package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fonnect/internal/db"
	apperrors "fonnect/internal/errors"

	"github.com/google/uuid"
)

// Repository is the PostgreSQL Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var pairKey sql.NullString
	if key := c.PairKey(); key != "" {
		pairKey = sql.NullString{String: key, Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, name, pair_key, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (pair_key) DO NOTHING`,
		c.ID, c.Name, pairKey, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return apperrors.ErrDuplicateConversation
	}

	for i, userID := range c.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO participants (conversation_id, user_id, position) VALUES ($1, $2, $3)",
			c.ID, userID, i)
		if err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	for _, m := range c.Messages {
		if err := insertMessage(ctx, tx, c.ID, m); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) FindByID(ctx context.Context, id string) (*Conversation, error) {
	c := &Conversation{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM conversations WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}

	if c.Participants, err = r.participants(ctx, id); err != nil {
		return nil, err
	}
	if c.Messages, err = r.messages(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) FindByParticipants(ctx context.Context, participants []string) (*Conversation, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM conversations WHERE pair_key = $1", PairKey(participants...)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *Repository) FindNamed(ctx context.Context) ([]GroupSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM conversations WHERE name <> '' ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []GroupSummary
	for rows.Next() {
		var g GroupSummary
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *Repository) FindUnnamedFor(ctx context.Context, userID string) ([]Conversation, error) {
	query := `
		SELECT c.id, c.created_at, p2.user_id
		FROM conversations c
		JOIN participants p ON p.conversation_id = c.id AND p.user_id = $1
		JOIN participants p2 ON p2.conversation_id = c.id
		WHERE c.name = ''
		ORDER BY c.created_at, c.id, p2.position
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var participant string
		if err := rows.Scan(&c.ID, &c.CreatedAt, &participant); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].ID == c.ID {
			out[n-1].Participants = append(out[n-1].Participants, participant)
			continue
		}
		c.Participants = []string{participant}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) AppendMessage(ctx context.Context, id string, m Message) error {
	err := insertMessage(ctx, r.db, id, m)
	if db.IsForeignKeyViolation(err) {
		return apperrors.ErrConversationNotFound
	}
	return err
}

func (r *Repository) AddParticipant(ctx context.Context, id, userID string) error {
	query := `
		INSERT INTO participants (conversation_id, user_id, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0) FROM participants WHERE conversation_id = $1
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperrors.ErrConversationNotFound
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrAlreadyParticipant
	}
	return nil
}

func (r *Repository) participants(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM participants WHERE conversation_id = $1 ORDER BY position, joined_at", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		ids = append(ids, userID)
	}
	return ids, rows.Err()
}

func (r *Repository) messages(ctx context.Context, id string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT sender_id, content, created_at FROM messages WHERE conversation_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMessage(ctx context.Context, e execer, conversationID string, m Message) error {
	_, err := e.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, content, created_at) VALUES ($1, $2, $3, $4)",
		conversationID, m.Sender, m.Content, m.Timestamp)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

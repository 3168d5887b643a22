package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/fridgly/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, created_at`

// GetByID returns the user with its group memberships in join order, or
// nil if the identity has never signed in.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id FROM user_groups WHERE user_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list user groups: %w", err)
	}
	defer rows.Close()

	u.Groups = []string{}
	for rows.Next() {
		var gid string
		if err := rows.Scan(&gid); err != nil {
			return nil, fmt.Errorf("scan user group: %w", err)
		}
		u.Groups = append(u.Groups, gid)
	}
	return u, rows.Err()
}

// CreateWithGroup persists g and u in one transaction and makes g the
// user's sole group. g.ID is assigned when empty. Returns ErrAlreadyExists
// if u.ID is already taken, in which case nothing is written.
func (s *UserStore) CreateWithGroup(ctx context.Context, u *model.User, g *model.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		u.ID, u.Email, u.Name, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.Name, g.CreatedBy, g.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_id, position) VALUES (?, ?, 0)`,
		u.ID, g.ID,
	); err != nil {
		return fmt.Errorf("insert user group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	u.Groups = []string{g.ID}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/exerlog/exerlog/internal/model"
	"github.com/exerlog/exerlog/internal/repository"
)

// InsertUser inserts a new user with an empty log.
func (s *Store) InsertUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, count, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.Count, user.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers returns every user's header fields in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, count, created_at FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetUser retrieves a user with the full log in insertion order. Both
// reads run in one transaction so Count matches len(Log).
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx,
		`SELECT id, username, count, created_at FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}

	user.Log, err = loadLog(ctx, tx, id, user.Count)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

func loadLog(ctx context.Context, tx *sql.Tx, id string, count int) ([]model.Exercise, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT description, duration, date_ms FROM exercises WHERE user_id = ? ORDER BY seq`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	log := make([]model.Exercise, 0, count)
	for rows.Next() {
		var (
			e      model.Exercise
			dateMs int64
		)
		if err := rows.Scan(&e.Description, &e.Duration, &dateMs); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		e.Date = time.UnixMilli(dateMs).UTC()
		log = append(log, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return log, nil
}

// AppendExercise increments count and inserts the entry in one transaction.
// Dates are stored with millisecond precision.
func (s *Store) AppendExercise(ctx context.Context, userID string, exercise model.Exercise) (*model.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	user, err := scanUser(tx.QueryRowContext(ctx,
		`UPDATE users SET count = count + 1 WHERE id = ? RETURNING id, username, count, created_at`, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("increment count: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exercises (user_id, seq, description, duration, date_ms) VALUES (?, ?, ?, ?, ?)`,
		userID, user.Count, exercise.Description, exercise.Duration, exercise.Date.UnixMilli(),
	); err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		user      model.User
		createdMs int64
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Count, &createdMs); err != nil {
		return nil, err
	}
	user.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &user, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/exerlog/exerlog/internal/model"
)

// InsertUser inserts a new user with an empty log.
func (r *Repository) InsertUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, count, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Count,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// ListUsers returns every user's header fields in creation order.
// Log is left nil.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, username, count, created_at
		FROM users
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUser retrieves a user together with the full log in insertion order.
// Both reads share one repeatable-read snapshot, so Count always matches
// len(Log) even while appends are landing.
func (r *Repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user *model.User

	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, r.pool, opts, func(tx pgx.Tx) error {
		query := `
			SELECT id, username, count, created_at
			FROM users
			WHERE id = $1
		`

		var err error
		user, err = scanUser(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user by ID: %w", err)
		}

		logQuery := `
			SELECT description, duration, date
			FROM exercises
			WHERE user_id = $1
			ORDER BY seq
		`

		rows, err := tx.Query(ctx, logQuery, id)
		if err != nil {
			return fmt.Errorf("failed to load exercise log: %w", err)
		}
		defer rows.Close()

		user.Log = make([]model.Exercise, 0, user.Count)
		for rows.Next() {
			var e model.Exercise
			if err := rows.Scan(&e.Description, &e.Duration, &e.Date); err != nil {
				return fmt.Errorf("failed to scan exercise: %w", err)
			}
			e.Date = e.Date.UTC()
			user.Log = append(user.Log, e)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating exercises: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// AppendExercise appends an entry to the user's log and increments count
// in one transaction. The UPDATE takes the row lock, so concurrent appends
// for the same user serialize and each gets its own seq.
// The returned user carries the header fields only.
func (r *Repository) AppendExercise(ctx context.Context, userID string, exercise model.Exercise) (*model.User, error) {
	var user *model.User

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		bump := `
			UPDATE users
			SET count = count + 1
			WHERE id = $1
			RETURNING id, username, count, created_at
		`

		var err error
		user, err = scanUser(tx.QueryRow(ctx, bump, userID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to increment count: %w", err)
		}

		insert := `
			INSERT INTO exercises (user_id, seq, description, duration, date)
			VALUES ($1, $2, $3, $4, $5)
		`

		if _, err := tx.Exec(ctx, insert,
			userID,
			user.Count,
			exercise.Description,
			exercise.Duration,
			exercise.Date,
		); err != nil {
			return fmt.Errorf("failed to insert exercise: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// scanUser scans the user header columns.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Count,
		&user.CreatedAt,
	)
	return &user, err
}

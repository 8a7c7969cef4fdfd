package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"eventhub/internal/model"
)

// isUniqueViolation reports a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const userColumns = `id, name, email, password_hash, is_admin, is_activated, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsActivated, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, is_admin, is_activated)
		VALUES ($1, $2, $3, false, false)
		RETURNING id, created_at
	`, u.Name, strings.ToLower(u.Email), u.PasswordHash)

	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateEmail
		}
		return 0, wrapErr("insert user", err)
	}
	return u.ID, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1
	`, strings.ToLower(email))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("get user by email", err)
	}
	return u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("get user by id", err)
	}
	return u, nil
}

func (r *repository) CreateActivationToken(ctx context.Context, t *model.ActivationToken) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO activation_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, t.TokenHash, t.UserID, t.ExpiresAt); err != nil {
		return wrapErr("insert activation token", err)
	}
	return nil
}

// ActivateUserTx consumes the token and flips the user's activation flag in
// one transaction. Expired or unknown tokens reject the attempt without
// mutating anything; a token bound to an already-active user is rejected too.
func (r *repository) ActivateUserTx(ctx context.Context, tokenHash string) (*model.User, error) {
	tx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var userID int64
	var expiresAt time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT user_id, expires_at FROM activation_tokens WHERE token_hash = $1 FOR UPDATE
	`, tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, wrapErr("lock activation token", err)
	}

	if time.Now().After(expiresAt) {
		_ = tx.Rollback()
		return nil, ErrTokenExpired
	}

	row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	u, err := scanUser(row)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("lock user", err)
	}

	if u.IsActivated {
		_ = tx.Rollback()
		return nil, ErrAlreadyActivated
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET is_activated = true WHERE id = $1
	`, userID); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("activate user", err)
	}

	// Single use: drop every outstanding token for the user.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM activation_tokens WHERE user_id = $1
	`, userID); err != nil {
		_ = tx.Rollback()
		return nil, wrapErr("consume activation token", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr("commit activation", err)
	}

	u.IsActivated = true
	return u, nil
}

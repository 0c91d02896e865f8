package postgres

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (uid, username, email, first_name, last_name, role, is_verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := s.pool.Exec(ctx, query,
		user.UID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsVerified,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT uid, username, email, first_name, last_name, role, is_verified, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1;
	`

	var u models.User
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&u.UID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsVerified,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (s *Storage) UserExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.UserExists"

	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) SetEmailVerified(ctx context.Context, email string) error {
	const op = "storage.postgres.SetEmailVerified"

	query := `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE email = $1;`

	tag, err := s.pool.Exec(ctx, query, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (s *Storage) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	const op = "storage.postgres.UpdatePasswordHash"

	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE email = $1;`

	tag, err := s.pool.Exec(ctx, query, email, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

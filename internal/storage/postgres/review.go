package postgres

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const reviewColumns = `uid, rating, review_text, user_uid, book_uid, created_at, updated_at`

func (s *Storage) SaveReview(ctx context.Context, review *models.Review) error {
	const op = "storage.postgres.SaveReview"

	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	_, err := s.pool.Exec(ctx, query,
		review.UID,
		review.Rating,
		review.ReviewText,
		review.UserUID,
		review.BookUID,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return storage.ErrReviewInvalid
		}

		return fmt.Errorf("%s: failed to save review: %w", op, err)
	}

	return nil
}

func (s *Storage) Reviews(ctx context.Context) ([]models.Review, error) {
	const op = "storage.postgres.Reviews"

	query := `SELECT ` + reviewColumns + ` FROM reviews ORDER BY created_at DESC;`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanReviews(op, rows)
}

func (s *Storage) ReviewsByBook(ctx context.Context, bookUID uuid.UUID) ([]models.Review, error) {
	const op = "storage.postgres.ReviewsByBook"

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE book_uid = $1 ORDER BY created_at DESC;`

	rows, err := s.pool.Query(ctx, query, bookUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanReviews(op, rows)
}

func scanReviews(op string, rows pgx.Rows) ([]models.Review, error) {
	var reviews []models.Review

	for rows.Next() {
		var rv models.Review
		err := rows.Scan(
			&rv.UID,
			&rv.Rating,
			&rv.ReviewText,
			&rv.UserUID,
			&rv.BookUID,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		reviews = append(reviews, rv)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return reviews, nil
}

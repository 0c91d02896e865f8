package postgres

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookColumns = `uid, title, author, publisher, published_date, page_count, language, user_uid, created_at, updated_at`

func (s *Storage) SaveBook(ctx context.Context, book *models.Book) error {
	const op = "storage.postgres.SaveBook"

	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`

	_, err := s.pool.Exec(ctx, query,
		book.UID,
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishedDate,
		book.PageCount,
		book.Language,
		book.UserUID,
		book.CreatedAt,
		book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to save book: %w", op, err)
	}

	return nil
}

func (s *Storage) Books(ctx context.Context) ([]models.Book, error) {
	const op = "storage.postgres.Books"

	query := `SELECT ` + bookColumns + ` FROM books ORDER BY created_at DESC;`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanBooks(op, rows)
}

func (s *Storage) BooksByUser(ctx context.Context, userUID uuid.UUID) ([]models.Book, error) {
	const op = "storage.postgres.BooksByUser"

	query := `SELECT ` + bookColumns + ` FROM books WHERE user_uid = $1 ORDER BY created_at DESC;`

	rows, err := s.pool.Query(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return scanBooks(op, rows)
}

func (s *Storage) BookByUID(ctx context.Context, uid uuid.UUID) (models.Book, error) {
	const op = "storage.postgres.BookByUID"

	query := `SELECT ` + bookColumns + ` FROM books WHERE uid = $1;`

	var b models.Book
	err := s.pool.QueryRow(ctx, query, uid).Scan(
		&b.UID,
		&b.Title,
		&b.Author,
		&b.Publisher,
		&b.PublishedDate,
		&b.PageCount,
		&b.Language,
		&b.UserUID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// UpdateBook applies only the fields set in upd, everything else keeps
// its stored value.
func (s *Storage) UpdateBook(ctx context.Context, uid uuid.UUID, upd models.BookUpdate) (models.Book, error) {
	const op = "storage.postgres.UpdateBook"

	query := `
		UPDATE books
		SET title = COALESCE($2, title),
		    author = COALESCE($3, author),
		    publisher = COALESCE($4, publisher),
		    page_count = COALESCE($5, page_count),
		    language = COALESCE($6, language),
		    updated_at = NOW()
		WHERE uid = $1
		RETURNING ` + bookColumns + `;
	`

	var b models.Book
	err := s.pool.QueryRow(ctx, query, uid,
		upd.Title,
		upd.Author,
		upd.Publisher,
		upd.PageCount,
		upd.Language,
	).Scan(
		&b.UID,
		&b.Title,
		&b.Author,
		&b.Publisher,
		&b.PublishedDate,
		&b.PageCount,
		&b.Language,
		&b.UserUID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storage.ErrBookNotFound
		}

		return models.Book{}, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

func (s *Storage) DeleteBook(ctx context.Context, uid uuid.UUID) error {
	const op = "storage.postgres.DeleteBook"

	query := `DELETE FROM books WHERE uid = $1;`

	tag, err := s.pool.Exec(ctx, query, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrBookNotFound
	}

	return nil
}

func scanBooks(op string, rows pgx.Rows) ([]models.Book, error) {
	var books []models.Book

	for rows.Next() {
		var b models.Book
		err := rows.Scan(
			&b.UID,
			&b.Title,
			&b.Author,
			&b.Publisher,
			&b.PublishedDate,
			&b.PageCount,
			&b.Language,
			&b.UserUID,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		books = append(books, b)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return books, nil
}

package books

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "bookly/internal/lib/api/response"
	sl "bookly/internal/lib/logger"
	"bookly/internal/http_server/middleware/authgate"
	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const publishedDateLayout = "2006-01-02"

type BookStore interface {
	SaveBook(ctx context.Context, book *models.Book) error
	Books(ctx context.Context) ([]models.Book, error)
	BooksByUser(ctx context.Context, userUID uuid.UUID) ([]models.Book, error)
	BookByUID(ctx context.Context, uid uuid.UUID) (models.Book, error)
	UpdateBook(ctx context.Context, uid uuid.UUID, upd models.BookUpdate) (models.Book, error)
	DeleteBook(ctx context.Context, uid uuid.UUID) error
	ReviewsByBook(ctx context.Context, bookUID uuid.UUID) ([]models.Review, error)
}

type CreateRequest struct {
	Title         string `json:"title" validate:"required"`
	Author        string `json:"author" validate:"required"`
	Publisher     string `json:"publisher" validate:"required"`
	PublishedDate string `json:"published_date" validate:"required"`
	PageCount     int    `json:"page_count" validate:"required,gt=0"`
	Language      string `json:"language" validate:"required"`
}

type ListResponse struct {
	resp.Response
	Books []models.Book `json:"books"`
}

type BookResponse struct {
	resp.Response
	Book models.Book `json:"book"`
}

type DetailResponse struct {
	resp.Response
	Book    models.Book     `json:"book"`
	Reviews []models.Review `json:"reviews"`
}

func List(log *slog.Logger, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.List"

		log := requestLogger(log, op, r)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		books, err := store.Books(ctx)
		if err != nil {
			log.Error("failed to list books", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Books:    books,
		})
	}
}

func ListByUser(log *slog.Logger, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.ListByUser"

		log := requestLogger(log, op, r)

		userUID, err := uuid.Parse(chi.URLParam(r, "user_uid"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid user uid"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		books, err := store.BooksByUser(ctx, userUID)
		if err != nil {
			log.Error("failed to list user books", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Books:    books,
		})
	}
}

// GetByUID returns the book together with its reviews.
func GetByUID(log *slog.Logger, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.GetByUID"

		log := requestLogger(log, op, r)

		uid, err := uuid.Parse(chi.URLParam(r, "uid"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid book uid"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		book, err := store.BookByUID(ctx, uid)
		if err != nil {
			if errors.Is(err, storage.ErrBookNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("book not found"))

				return
			}

			log.Error("failed to get book", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		reviews, err := store.ReviewsByBook(ctx, uid)
		if err != nil {
			log.Error("failed to get book reviews", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, DetailResponse{
			Response: resp.OK(),
			Book:     book,
			Reviews:  reviews,
		})
	}
}

// Create submits a book owned by the authenticated caller.
func Create(log *slog.Logger, validate *validator.Validate, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.Create"

		log := requestLogger(log, op, r)

		identity, ok := authgate.IdentityFromContext(r.Context())
		if !ok {
			log.Error("no identity in context")

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		var req CreateRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		publishedDate, err := time.Parse(publishedDateLayout, req.PublishedDate)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("published_date must be formatted as YYYY-MM-DD"))

			return
		}

		userUID, err := uuid.Parse(identity.UID)
		if err != nil {
			log.Error("invalid identity uid", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		now := time.Now()
		book := models.Book{
			UID:           uuid.New(),
			Title:         req.Title,
			Author:        req.Author,
			Publisher:     req.Publisher,
			PublishedDate: publishedDate,
			PageCount:     req.PageCount,
			Language:      req.Language,
			UserUID:       userUID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.SaveBook(ctx, &book); err != nil {
			log.Error("failed to save book", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("book created", slog.String("uid", book.UID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, BookResponse{
			Response: resp.OK(),
			Book:     book,
		})
	}
}

func Update(log *slog.Logger, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.Update"

		log := requestLogger(log, op, r)

		uid, err := uuid.Parse(chi.URLParam(r, "uid"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid book uid"))

			return
		}

		var upd models.BookUpdate

		if err := render.DecodeJSON(r.Body, &upd); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		book, err := store.UpdateBook(ctx, uid, upd)
		if err != nil {
			if errors.Is(err, storage.ErrBookNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("book not found"))

				return
			}

			log.Error("failed to update book", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("book updated", slog.String("uid", uid.String()))

		render.JSON(w, r, BookResponse{
			Response: resp.OK(),
			Book:     book,
		})
	}
}

func Delete(log *slog.Logger, store BookStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.books.Delete"

		log := requestLogger(log, op, r)

		uid, err := uuid.Parse(chi.URLParam(r, "uid"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid book uid"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := store.DeleteBook(ctx, uid); err != nil {
			if errors.Is(err, storage.ErrBookNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("book not found"))

				return
			}

			log.Error("failed to delete book", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("book deleted", slog.String("uid", uid.String()))

		render.JSON(w, r, resp.OK())
	}
}

func requestLogger(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

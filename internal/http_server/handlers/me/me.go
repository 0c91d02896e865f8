package me

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type Response struct {
	resp.Response
	User  models.User   `json:"user"`
	Books []models.Book `json:"books"`
}

type ProfileProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	BooksByUser(ctx context.Context, userUID uuid.UUID) ([]models.Book, error)
}

func New(
	log *slog.Logger,
	provider ProfileProvider,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		identity, ok := authgate.IdentityFromContext(r.Context())
		if !ok {
			log.Error("no identity in context")

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := provider.UserByEmail(ctx, identity.Email)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("user not found"))

				return
			}

			log.Error("failed to get user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		books, err := provider.BooksByUser(ctx, user.UID)
		if err != nil {
			log.Error("failed to get user books", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			User:     user,
			Books:    books,
		})
	}
}

package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "bookly/internal/lib/api/response"
	sl "bookly/internal/lib/logger"
	"bookly/internal/lib/tokens"
	"bookly/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

func New(
	log *slog.Logger,
	verifier EmailVerifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			log.Warn("missing verification token")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing token"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := verifier.VerifyEmail(ctx, token); err != nil {
			switch {
			case errors.Is(err, tokens.ErrInvalidToken):
				log.Warn("invalid verification token", sl.Err(err))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("invalid or expired token"))
			case errors.Is(err, storage.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("user not found"))
			default:
				log.Error("failed to verify email", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))
			}

			return
		}

		log.Info("email verified")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "email verified successfully",
		})
	}
}

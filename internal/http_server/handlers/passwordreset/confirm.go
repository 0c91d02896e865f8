package passwordreset

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
	"github.com/go-playground/validator/v10"
)

type ConfirmRequest struct {
	NewPassword        string `json:"new_password" validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

// NewConfirm handles the second reset step: the emailed token plus the
// new password.
func NewConfirm(
	log *slog.Logger,
	validate *validator.Validate,
	resetter Resetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordreset.NewConfirm"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, "token")
		if token == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing token"))

			return
		}

		var req ConfirmRequest

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

		if req.NewPassword != req.ConfirmNewPassword {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("passwords do not match"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := resetter.ConfirmPasswordReset(ctx, token, req.NewPassword); err != nil {
			switch {
			case errors.Is(err, tokens.ErrInvalidToken):
				log.Warn("invalid reset token", sl.Err(err))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("invalid or expired token"))
			case errors.Is(err, storage.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("user not found"))
			default:
				log.Error("failed to reset password", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))
			}

			return
		}

		log.Info("password reset confirmed")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "password reset successfully",
		})
	}
}

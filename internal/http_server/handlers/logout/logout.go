package logout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "bookly/internal/lib/api/response"
	sl "bookly/internal/lib/logger"
	"bookly/internal/http_server/middleware/authgate"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type TokenRevoker interface {
	Logout(ctx context.Context, jti string) error
}

// New runs behind the auth gate, so the token being revoked is the one
// that just authorized this request.
func New(
	log *slog.Logger,
	revoker TokenRevoker,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := revoker.Logout(ctx, identity.TokenID); err != nil {
			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("user logged out")

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "successfully logged out",
		})
	}
}

package authgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "bookly/internal/lib/api/response"
	sl "bookly/internal/lib/logger"
	"bookly/internal/lib/tokens"
	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Identity is what the gate hands to handlers once a request is
// authorized.
type Identity struct {
	UID     string
	Email   string
	Role    string
	TokenID string
}

type Blocklist interface {
	Contains(ctx context.Context, jti string) (bool, error)
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

// Options select which kind of session token an endpoint accepts and
// which policy the resolved user must satisfy. The token-type check and
// the role check are independent gates: a valid access token can still
// be refused on role grounds.
type Options struct {
	RequireRefresh  bool
	RequireVerified bool
	AllowedRoles    []string
}

type Gate struct {
	log       *slog.Logger
	session   *tokens.SessionCodec
	blocklist Blocklist
	users     UserProvider
}

func New(log *slog.Logger, session *tokens.SessionCodec, blocklist Blocklist, users UserProvider) *Gate {
	return &Gate{
		log:       log,
		session:   session,
		blocklist: blocklist,
		users:     users,
	}
}

// Require walks a request through the auth pipeline: bearer extraction,
// signature/expiry, revocation, token type, user lookup, verification
// and role policy. The first failed step terminates the request.
func (g *Gate) Require(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authgate.Require"

			log := g.log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			raw, ok := bearerToken(r)
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("authorization required"))

				return
			}

			claims, err := g.session.Parse(raw)
			if err != nil {
				log.Warn("invalid session token", sl.Err(err))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("invalid or expired token"))

				return
			}

			revoked, err := g.blocklist.Contains(r.Context(), claims.ID)
			if err != nil {
				log.Error("blocklist lookup failed", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))

				return
			}

			if revoked {
				log.Warn("revoked token presented", slog.String("jti", claims.ID))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("token has been revoked"))

				return
			}

			if claims.Refresh != opts.RequireRefresh {
				render.Status(r, http.StatusForbidden)

				if opts.RequireRefresh {
					render.JSON(w, r, resp.Error("refresh token required"))
				} else {
					render.JSON(w, r, resp.Error("refresh token not allowed for this endpoint"))
				}

				return
			}

			user, err := g.users.UserByEmail(r.Context(), claims.User.Email)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					render.Status(r, http.StatusNotFound)
					render.JSON(w, r, resp.Error("user not found"))

					return
				}

				log.Error("user lookup failed", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("internal error"))

				return
			}

			if opts.RequireVerified && !user.IsVerified {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("account not verified"))

				return
			}

			if len(opts.AllowedRoles) > 0 && !RoleAllowed(user.Role, opts.AllowedRoles) {
				log.Warn("role not allowed", slog.String("role", user.Role))

				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, resp.Error("you do not have permission to access this resource"))

				return
			}

			identity := Identity{
				UID:     user.UID.String(),
				Email:   user.Email,
				Role:    user.Role,
				TokenID: claims.ID,
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RoleAllowed is a plain membership test, there is no hierarchy between
// roles.
func RoleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}

	return false
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

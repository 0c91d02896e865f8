package reviews

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

type ReviewStore interface {
	SaveReview(ctx context.Context, review *models.Review) error
	Reviews(ctx context.Context) ([]models.Review, error)
	BookByUID(ctx context.Context, uid uuid.UUID) (models.Book, error)
}

type CreateRequest struct {
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"review_text" validate:"required"`
}

type ReviewResponse struct {
	resp.Response
	Review models.Review `json:"review"`
}

type ListResponse struct {
	resp.Response
	Reviews []models.Review `json:"reviews"`
}

// Create attaches a review by the authenticated caller to a book.
func Create(log *slog.Logger, validate *validator.Validate, store ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reviews.Create"

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

		bookUID, err := uuid.Parse(chi.URLParam(r, "book_uid"))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid book uid"))

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

		userUID, err := uuid.Parse(identity.UID)
		if err != nil {
			log.Error("invalid identity uid", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := store.BookByUID(ctx, bookUID); err != nil {
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

		now := time.Now()
		review := models.Review{
			UID:        uuid.New(),
			Rating:     req.Rating,
			ReviewText: req.ReviewText,
			UserUID:    userUID,
			BookUID:    bookUID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := store.SaveReview(ctx, &review); err != nil {
			if errors.Is(err, storage.ErrReviewInvalid) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("book not found"))

				return
			}

			log.Error("failed to save review", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("review created", slog.String("uid", review.UID.String()))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, ReviewResponse{
			Response: resp.OK(),
			Review:   review,
		})
	}
}

func List(log *slog.Logger, store ReviewStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reviews.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		reviews, err := store.Reviews(ctx)
		if err != nil {
			log.Error("failed to list reviews", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Reviews:  reviews,
		})
	}
}

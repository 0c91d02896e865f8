package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookly/internal/auth"
	"bookly/internal/config"
	"bookly/internal/http_server/handlers/books"
	"bookly/internal/http_server/handlers/login"
	"bookly/internal/http_server/handlers/logout"
	"bookly/internal/http_server/handlers/me"
	"bookly/internal/http_server/handlers/passwordreset"
	"bookly/internal/http_server/handlers/refresh"
	"bookly/internal/http_server/handlers/reviews"
	"bookly/internal/http_server/handlers/signup"
	"bookly/internal/http_server/handlers/verify"
	"bookly/internal/http_server/middleware/authgate"
	"bookly/internal/http_server/middleware/ratelimit"
	sl "bookly/internal/lib/logger"
	"bookly/internal/lib/tokens"
	"bookly/internal/models"
	"bookly/internal/rabbitmq"
	"bookly/internal/storage/postgres"
	redisstore "bookly/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting bookly", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	blocklist, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer blocklist.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	sessionCodec := tokens.NewSessionCodec(cfg.Tokens.Secret, cfg.Tokens.AccessTokenTTL, cfg.Tokens.RefreshTokenTTL)
	actionCodec := tokens.NewActionCodec(cfg.Tokens.Secret)

	authService := auth.New(
		log,
		storage,
		storage,
		blocklist,
		msgBroker,
		sessionCodec,
		actionCodec,
		cfg.Tokens.ActionTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
		cfg.Domain,
	)

	gate := authgate.New(log, sessionCodec, blocklist, storage)

	router := setupRouter(log, authService, gate, storage)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

func setupRouter(
	log *slog.Logger,
	authService *auth.Auth,
	gate *authgate.Gate,
	storage *postgres.Storage,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	anyRole := []string{models.RoleUser, models.RoleAdmin}

	accessGate := gate.Require(authgate.Options{AllowedRoles: anyRole})
	verifiedGate := gate.Require(authgate.Options{AllowedRoles: anyRole, RequireVerified: true})
	refreshGate := gate.Require(authgate.Options{RequireRefresh: true})

	r.With(ratelimit.Signup()).Post("/signup", signup.New(log, validate, authService))
	r.With(ratelimit.Verify()).Get("/verify/{token}", verify.New(log, authService))
	r.With(ratelimit.Login()).Post("/login", login.New(log, validate, authService))
	r.With(ratelimit.Refresh(), refreshGate).Get("/refresh", refresh.New(log, authService))
	r.With(accessGate).Get("/me", me.New(log, storage))
	r.With(accessGate).Get("/logout", logout.New(log, authService))
	r.With(ratelimit.PasswordReset()).Post("/password-reset-request", passwordreset.NewRequest(log, validate, authService))
	r.With(ratelimit.PasswordReset()).Post("/password-reset-confirm/{token}", passwordreset.NewConfirm(log, validate, authService))

	r.Route("/books", func(r chi.Router) {
		r.With(accessGate).Get("/", books.List(log, storage))
		r.With(accessGate).Get("/{uid}", books.GetByUID(log, storage))
		r.With(accessGate).Get("/user/{user_uid}", books.ListByUser(log, storage))
		r.With(verifiedGate).Post("/", books.Create(log, validate, storage))
		r.With(verifiedGate).Put("/{uid}", books.Update(log, storage))
		r.With(verifiedGate).Delete("/{uid}", books.Delete(log, storage))
	})

	r.Route("/reviews", func(r chi.Router) {
		r.With(accessGate).Get("/", reviews.List(log, storage))
		r.With(verifiedGate).Post("/book/{book_uid}", reviews.Create(log, validate, storage))
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

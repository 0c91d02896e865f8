package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookly/internal/lib/hash"
	sl "bookly/internal/lib/logger"
	"bookly/internal/lib/tokens"
	"bookly/internal/models"
	"bookly/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotVerified   = errors.New("email not verified")
)

type UserSaver interface {
	SaveUser(ctx context.Context, user *models.User) error
	SetEmailVerified(ctx context.Context, email string) error
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
}

type TokenRevoker interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	revoker     TokenRevoker
	publisher   Publisher
	session     *tokens.SessionCodec
	action      *tokens.ActionCodec
	actionTTL   time.Duration
	refreshTTL  time.Duration
	domain      string
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	revoker TokenRevoker,
	publisher Publisher,
	session *tokens.SessionCodec,
	action *tokens.ActionCodec,
	actionTTL, refreshTTL time.Duration,
	domain string,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		revoker:     revoker,
		publisher:   publisher,
		session:     session,
		action:      action,
		actionTTL:   actionTTL,
		refreshTTL:  refreshTTL,
		domain:      domain,
	}
}

// Register creates an unverified account and mails a verification link.
// A failed mail publish does not roll the account back, the link can be
// requested again by signing up flow owners later.
func (a *Auth) Register(
	ctx context.Context,
	username, email, firstName, lastName, password string,
) (models.User, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	exists, err := a.usrProvider.UserExists(ctx, email)
	if err != nil {
		log.Error("failed to check user existence", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if exists {
		log.Warn("user already exists")
		return models.User{}, ErrUserExists
	}

	passwordHash, err := hash.Password(password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	user := models.User{
		UID:          uuid.New(),
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         models.RoleUser,
		IsVerified:   false,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.usrSaver.SaveUser(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.sendActionLink(ctx, email, "Bookly: verify your email", "/verify/"); err != nil {
		log.Error("failed to send verification email", sl.Err(err))
	}

	log.Info("user registered", slog.String("uid", user.UID.String()))

	return user, nil
}

// Login checks the credentials and returns an access/refresh token pair.
func (a *Auth) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", "", storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !hash.Verify(password, user.PasswordHash) {
		log.Info("invalid credentials")
		return "", "", ErrInvalidCredentials
	}

	if !user.IsVerified {
		return "", "", ErrEmailNotVerified
	}

	accessToken, refreshToken, err = a.issuePair(user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.String("uid", user.UID.String()))

	return accessToken, refreshToken, nil
}

// RefreshTokens issues a fresh pair for an identity that already passed
// the gate with a refresh token.
func (a *Auth) RefreshTokens(ctx context.Context, email string) (accessToken, refreshToken string, err error) {
	const op = "auth.RefreshTokens"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return "", "", storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	accessToken, refreshToken, err = a.issuePair(user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens refreshed", slog.String("uid", user.UID.String()))

	return accessToken, refreshToken, nil
}

// Logout revokes the presented token by jti. The blocklist entry lives
// for the refresh TTL, which is never shorter than any token validity.
func (a *Auth) Logout(ctx context.Context, jti string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if err := a.revoker.Add(ctx, jti, a.refreshTTL); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("token revoked")

	return nil
}

// VerifyEmail consumes an action token from a verification link and
// flips the account to verified.
func (a *Auth) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	email, err := a.action.Verify(token, a.actionTTL)
	if err != nil {
		log.Warn("invalid action token", sl.Err(err))
		return tokens.ErrInvalidToken
	}

	if err := a.usrSaver.SetEmailVerified(ctx, email); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return storage.ErrUserNotFound
		}

		log.Error("failed to mark user verified", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified")

	return nil
}

// RequestPasswordReset mails a reset link to an existing account.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	log := a.log.With(slog.String("op", op))

	if _, err := a.usrProvider.UserByEmail(ctx, email); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return storage.ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.sendActionLink(ctx, email, "Bookly: reset your password", "/password-reset-confirm/"); err != nil {
		log.Error("failed to send reset email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset requested")

	return nil
}

// ConfirmPasswordReset consumes an action token from a reset link and
// stores the new password hash.
func (a *Auth) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	const op = "auth.ConfirmPasswordReset"

	log := a.log.With(slog.String("op", op))

	email, err := a.action.Verify(token, a.actionTTL)
	if err != nil {
		log.Warn("invalid action token", sl.Err(err))
		return tokens.ErrInvalidToken
	}

	passwordHash, err := hash.Password(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePasswordHash(ctx, email, passwordHash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return storage.ErrUserNotFound
		}

		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset")

	return nil
}

func (a *Auth) issuePair(user models.User) (string, string, error) {
	claims := tokens.UserClaims{
		UID:   user.UID.String(),
		Email: user.Email,
		Role:  user.Role,
	}

	accessToken, err := a.session.Issue(claims, false)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.session.Issue(claims, true)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (a *Auth) sendActionLink(ctx context.Context, email, subject, path string) error {
	token, err := a.action.Issue(email)
	if err != nil {
		return err
	}

	return a.publisher.SendMessage(ctx, models.Message{
		Email:   email,
		Subject: subject,
		Link:    fmt.Sprintf("http://%s%s%s", a.domain, path, token),
	})
}

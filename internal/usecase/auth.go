package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/abekov/todo-api/internal/email"
	"github.com/abekov/todo-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 24 * time.Hour

// Compared against when the email is unknown, so lookup failure and password
// mismatch take the same time.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type AuthUsecase struct {
	users      repository.UserRepository
	email      email.Sender
	jwtKey     []byte
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthUsecase(users repository.UserRepository, emailSender email.Sender, jwtKey []byte, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		email:      emailSender,
		jwtKey:     jwtKey,
		sessionTTL: defaultSessionTTL,
		logger:     logger.With("component", "auth_usecase"),
	}
}

// SessionTTL is how long an issued token stays valid. Housekeeping uses it to
// prune stored tokens once their JWT counterpart has expired anyway.
func (u *AuthUsecase) SessionTTL() time.Duration {
	return u.sessionTTL
}

// Register hashes the password, stores the user, and opens the first session.
func (u *AuthUsecase) Register(ctx context.Context, name, emailAddr, password string) (*domain.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, name, emailAddr, string(hash))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, "", domain.ErrDuplicateEmail
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := u.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	// Best effort — a failed welcome mail must not fail registration.
	subject := "Welcome to Todo API"
	body := fmt.Sprintf("<p>Hi %s, your account is ready.</p>", user.Name)
	if err := u.email.Send(ctx, user.Email, subject, body); err != nil {
		u.logger.WarnContext(ctx, "send welcome email", "error", err)
	}

	return user, token, nil
}

// Login verifies credentials and opens a new session. Failures are collapsed
// into ErrInvalidCredentials so callers cannot tell which field was wrong.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, password string) (*domain.User, string, error) {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := u.openSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout removes the session the request authenticated with. Other sessions
// of the same user stay valid.
func (u *AuthUsecase) Logout(ctx context.Context, userID, token string) error {
	if err := u.users.RemoveToken(ctx, userID, token); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Authenticate resolves a raw token to its user. The signature check alone is
// not enough: the (userID, token) pair must still be in the user's session
// list, which is what makes logout effective immediately.
func (u *AuthUsecase) Authenticate(ctx context.Context, rawToken string) (*domain.User, error) {
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return u.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	userID, _ := claims["sub"].(string)
	access, _ := claims["access"].(string)
	if userID == "" || access != domain.TokenAccessAuth {
		return nil, domain.ErrTokenInvalid
	}

	user, err := u.users.FindBySession(ctx, userID, rawToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return user, nil
}

func (u *AuthUsecase) openSession(ctx context.Context, userID string) (string, error) {
	token, err := u.issueToken(userID)
	if err != nil {
		return "", err
	}
	if err := u.users.AddToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

func (u *AuthUsecase) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":    userID,
		"access": domain.TokenAccessAuth,
		"iat":    now.Unix(),
		"exp":    now.Add(u.sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(u.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abekov/todo-api/internal/domain"
	"github.com/abekov/todo-api/internal/usecase"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ---- fakes ----

type fakeUserRepo struct {
	create        func(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	findByEmail   func(ctx context.Context, email string) (*domain.User, error)
	findBySession func(ctx context.Context, userID, token string) (*domain.User, error)
	addToken      func(ctx context.Context, userID, token string) error
	removeToken   func(ctx context.Context, userID, token string) error
	pruneTokens   func(ctx context.Context, cutoff time.Time) (int, error)
}

func (r *fakeUserRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error) {
	return r.create(ctx, name, email, passwordHash)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findByEmail(ctx, email)
}

func (r *fakeUserRepo) FindBySession(ctx context.Context, userID, token string) (*domain.User, error) {
	return r.findBySession(ctx, userID, token)
}

func (r *fakeUserRepo) AddToken(ctx context.Context, userID, token string) error {
	return r.addToken(ctx, userID, token)
}

func (r *fakeUserRepo) RemoveToken(ctx context.Context, userID, token string) error {
	return r.removeToken(ctx, userID, token)
}

func (r *fakeUserRepo) PruneTokens(ctx context.Context, cutoff time.Time) (int, error) {
	return r.pruneTokens(ctx, cutoff)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if s.send == nil {
		return nil
	}
	return s.send(ctx, to, subject, body)
}

// ---- helpers ----

const testJWTKey = "test-jwt-secret-at-least-32-chars!!"

func newAuthUsecase(repo *fakeUserRepo, sender *fakeEmailSender) *usecase.AuthUsecase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return usecase.NewAuthUsecase(repo, sender, []byte(testJWTKey), logger)
}

var testUser = &domain.User{ID: "7a9f7e7e-3f1c-4e04-9a54-0b640f6d21c1", Name: "Test", Email: "test@example.com"}

func parseClaims(t *testing.T, signed string) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected method")
		}
		return []byte(testJWTKey), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("returned JWT is invalid: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("could not cast claims")
	}
	return claims
}

// ---- Register ----

func TestRegister_StoresBcryptHashNotPlaintext(t *testing.T) {
	const password = "secret-pass"
	var capturedHash string

	repo := &fakeUserRepo{
		create: func(_ context.Context, _, _, passwordHash string) (*domain.User, error) {
			capturedHash = passwordHash
			return testUser, nil
		},
		addToken: func(_ context.Context, _, _ string) error { return nil },
	}

	_, _, err := newAuthUsecase(repo, &fakeEmailSender{}).Register(context.Background(), "Test", testUser.Email, password)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedHash == password {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(capturedHash), []byte(password)); err != nil {
		t.Errorf("stored hash does not verify against the password: %v", err)
	}
}

func TestRegister_IssuesAndStoresAuthToken(t *testing.T) {
	var storedToken string

	repo := &fakeUserRepo{
		create: func(_ context.Context, _, _, _ string) (*domain.User, error) {
			return testUser, nil
		},
		addToken: func(_ context.Context, userID, token string) error {
			if userID != testUser.ID {
				t.Errorf("token stored for user %q, want %q", userID, testUser.ID)
			}
			storedToken = token
			return nil
		},
	}

	_, token, err := newAuthUsecase(repo, &fakeEmailSender{}).Register(context.Background(), "Test", testUser.Email, "secret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if token != storedToken {
		t.Errorf("returned token %q differs from stored token %q", token, storedToken)
	}

	claims := parseClaims(t, token)
	if claims["sub"] != testUser.ID {
		t.Errorf("sub = %v, want %q", claims["sub"], testUser.ID)
	}
	if claims["access"] != domain.TokenAccessAuth {
		t.Errorf("access = %v, want %q", claims["access"], domain.TokenAccessAuth)
	}
}

func TestRegister_DuplicateEmail_ReturnsErrDuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{
		create: func(_ context.Context, _, _, _ string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}

	_, _, err := newAuthUsecase(repo, &fakeEmailSender{}).Register(context.Background(), "Test", testUser.Email, "secret-pass")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Errorf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestRegister_EmailFailure_DoesNotFailRegistration(t *testing.T) {
	repo := &fakeUserRepo{
		create: func(_ context.Context, _, _, _ string) (*domain.User, error) {
			return testUser, nil
		},
		addToken: func(_ context.Context, _, _ string) error { return nil },
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error {
			return errors.New("smtp unavailable")
		},
	}

	if _, _, err := newAuthUsecase(repo, sender).Register(context.Background(), "Test", testUser.Email, "secret-pass"); err != nil {
		t.Errorf("welcome mail failure must not fail registration, got %v", err)
	}
}

// ---- Login ----

func userWithPassword(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := *testUser
	u.PasswordHash = string(hash)
	return &u
}

func TestLogin_WrongPassword_ReturnsErrInvalidCredentials(t *testing.T) {
	tokenAdded := false
	repo := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return userWithPassword(t, "correct-pass"), nil
		},
		addToken: func(_ context.Context, _, _ string) error {
			tokenAdded = true
			return nil
		},
	}

	_, _, err := newAuthUsecase(repo, &fakeEmailSender{}).Login(context.Background(), testUser.Email, "wrong-pass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
	if tokenAdded {
		t.Error("token must not be issued on a failed login")
	}
}

func TestLogin_UnknownEmail_ReturnsErrInvalidCredentials(t *testing.T) {
	repo := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	_, _, err := newAuthUsecase(repo, &fakeEmailSender{}).Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials (not a user-not-found leak), got %v", err)
	}
}

func TestLogin_Success_AppendsNewToken(t *testing.T) {
	var storedToken string
	repo := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return userWithPassword(t, "correct-pass"), nil
		},
		addToken: func(_ context.Context, _, token string) error {
			storedToken = token
			return nil
		},
	}

	user, token, err := newAuthUsecase(repo, &fakeEmailSender{}).Login(context.Background(), testUser.Email, "correct-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != testUser.ID {
		t.Errorf("user.ID = %q, want %q", user.ID, testUser.ID)
	}
	if token == "" || token != storedToken {
		t.Errorf("returned token %q was not the one stored %q", token, storedToken)
	}
}

// ---- Authenticate ----

func TestAuthenticate_ValidSession_ReturnsUser(t *testing.T) {
	var issued string
	repo := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return userWithPassword(t, "correct-pass"), nil
		},
		addToken: func(_ context.Context, _, token string) error {
			issued = token
			return nil
		},
		findBySession: func(_ context.Context, userID, token string) (*domain.User, error) {
			if userID == testUser.ID && token == issued {
				return testUser, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}

	uc := newAuthUsecase(repo, &fakeEmailSender{})
	if _, _, err := uc.Login(context.Background(), testUser.Email, "correct-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := uc.Authenticate(context.Background(), issued)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != testUser.ID {
		t.Errorf("user.ID = %q, want %q", user.ID, testUser.ID)
	}
}

func TestAuthenticate_RevokedToken_ReturnsErrTokenInvalid(t *testing.T) {
	// The token signature still verifies; only the session lookup fails.
	var issued string
	repo := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return userWithPassword(t, "correct-pass"), nil
		},
		addToken: func(_ context.Context, _, token string) error {
			issued = token
			return nil
		},
		findBySession: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}

	uc := newAuthUsecase(repo, &fakeEmailSender{})
	if _, _, err := uc.Login(context.Background(), testUser.Email, "correct-pass"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := uc.Authenticate(context.Background(), issued); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestAuthenticate_WrongSigningKey_ReturnsErrTokenInvalid(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":    testUser.ID,
		"access": domain.TokenAccessAuth,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("different-key-that-is-32-chars!!"))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}

	uc := newAuthUsecase(&fakeUserRepo{}, &fakeEmailSender{})
	if _, err := uc.Authenticate(context.Background(), forged); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestAuthenticate_WrongAccessClaim_ReturnsErrTokenInvalid(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":    testUser.ID,
		"access": "admin",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTKey))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}

	uc := newAuthUsecase(&fakeUserRepo{}, &fakeEmailSender{})
	if _, err := uc.Authenticate(context.Background(), signed); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

// ---- Logout ----

func TestLogout_RemovesExactToken(t *testing.T) {
	var removedUser, removedToken string
	repo := &fakeUserRepo{
		removeToken: func(_ context.Context, userID, token string) error {
			removedUser, removedToken = userID, token
			return nil
		},
	}

	uc := newAuthUsecase(repo, &fakeEmailSender{})
	if err := uc.Logout(context.Background(), testUser.ID, "session-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removedUser != testUser.ID || removedToken != "session-token" {
		t.Errorf("removed (%q, %q), want (%q, %q)", removedUser, removedToken, testUser.ID, "session-token")
	}
}

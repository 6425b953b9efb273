package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	internaljwt "care-chat-backend/internal/jwt"
	"care-chat-backend/internal/model"
)

type memoryRepository struct {
	mu    sync.Mutex
	users map[string]model.UserItem
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]model.UserItem)}
}

func (r *memoryRepository) CreateUser(ctx context.Context, user model.UserItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
	return nil
}

func (r *memoryRepository) GetUser(ctx context.Context, userID string) (model.UserItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return model.UserItem{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) GetUserByEmail(ctx context.Context, email string) (model.UserItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.UserItem{}, ErrNotFound
}

func (r *memoryRepository) ListDoctors(ctx context.Context) ([]model.UserItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var doctors []model.UserItem
	for _, user := range r.users {
		if user.Role == model.RoleDoctor {
			doctors = append(doctors, user)
		}
	}
	return doctors, nil
}

func fixedTime() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

// setupTestJWT configures signing secrets and swaps the token issuer for one
// that skips the Redis-backed refresh token store.
func setupTestJWT(t *testing.T) {
	t.Helper()
	prevPatient := internaljwt.RoleSecrets[internaljwt.RolePatient]
	prevDoctor := internaljwt.RoleSecrets[internaljwt.RoleDoctor]
	internaljwt.RoleSecrets[internaljwt.RolePatient] = "patient-test-secret"
	internaljwt.RoleSecrets[internaljwt.RoleDoctor] = "doctor-test-secret"

	SetTokenIssuer(func(user internaljwt.User, role internaljwt.Role, validUntil int64) (internaljwt.TokenResponse, error) {
		accessToken, err := internaljwt.CreateToken(user, role, validUntil)
		if err != nil {
			return internaljwt.TokenResponse{}, err
		}
		return internaljwt.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: "refresh-" + user.Id,
		}, nil
	})

	t.Cleanup(func() {
		internaljwt.RoleSecrets[internaljwt.RolePatient] = prevPatient
		internaljwt.RoleSecrets[internaljwt.RoleDoctor] = prevDoctor
		SetTokenIssuer(nil)
	})
}

func setupAuth(t *testing.T) (*Service, *memoryRepository) {
	t.Helper()
	setupTestJWT(t)
	repo := newMemoryRepository()
	return NewWithRepository(repo, fixedTime), repo
}

func TestRegister(t *testing.T) {
	service, repo := setupAuth(t)
	ctx := context.Background()

	result, err := service.Register(ctx, RegisterParams{
		Email:    "  Pat@Example.com ",
		Password: "s3cretpass",
		FullName: "Pat Patient",
		Role:     "patient",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.UserID == "" {
		t.Fatal("user should receive an id")
	}
	if result.User.Email != "pat@example.com" {
		t.Fatalf("email should be normalized, got %q", result.User.Email)
	}
	if result.User.PasswordHash == "s3cretpass" {
		t.Fatal("password must be hashed")
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatalf("tokens missing: %+v", result.Tokens)
	}

	claims, role, err := internaljwt.ParseAnyToken(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if role != internaljwt.RolePatient || claims["id"] != result.User.UserID {
		t.Fatalf("unexpected token claims role=%d claims=%v", role, claims)
	}

	if _, err := repo.GetUser(ctx, result.User.UserID); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service, _ := setupAuth(t)
	ctx := context.Background()

	params := RegisterParams{Email: "pat@example.com", Password: "s3cretpass", Role: "patient"}
	if _, err := service.Register(ctx, params); err != nil {
		t.Fatal(err)
	}

	_, err := service.Register(ctx, params)
	var serviceErr *Error
	if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service, _ := setupAuth(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params RegisterParams
	}{
		{"missing email", RegisterParams{Password: "x", Role: "patient"}},
		{"missing password", RegisterParams{Email: "a@b.com", Role: "patient"}},
		{"missing role", RegisterParams{Email: "a@b.com", Password: "x"}},
		{"unknown role", RegisterParams{Email: "a@b.com", Password: "x", Role: "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(ctx, tc.params)
			var serviceErr *Error
			if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	service, _ := setupAuth(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, RegisterParams{
		Email:    "doc@example.com",
		Password: "s3cretpass",
		FullName: "Doc Doctor",
		Role:     "doctor",
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := service.Login(ctx, LoginParams{Email: "DOC@example.com", Password: "s3cretpass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.User.UserID != registered.User.UserID {
		t.Fatal("login should resolve the registered user")
	}

	_, role, err := internaljwt.ParseAnyToken(result.Tokens.AccessToken)
	if err != nil || role != internaljwt.RoleDoctor {
		t.Fatalf("expected doctor token, got role=%d err=%v", role, err)
	}

	_, err = service.Login(ctx, LoginParams{Email: "doc@example.com", Password: "wrong"})
	var serviceErr *Error
	if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}

	_, err = service.Login(ctx, LoginParams{Email: "nobody@example.com", Password: "s3cretpass"})
	if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not found for unknown email, got %v", err)
	}
}

func TestMe(t *testing.T) {
	service, repo := setupAuth(t)
	ctx := context.Background()

	repo.CreateUser(ctx, model.UserItem{UserID: "pat-1", Email: "pat@example.com", FullName: "Pat Patient", Role: model.RolePatient})

	user, err := service.Me(ctx, Identity{UserID: "pat-1"})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.FullName != "Pat Patient" {
		t.Fatalf("unexpected user %+v", user)
	}

	_, err = service.Me(ctx, Identity{UserID: "ghost"})
	var serviceErr *Error
	if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListDoctors(t *testing.T) {
	service, repo := setupAuth(t)
	ctx := context.Background()

	repo.CreateUser(ctx, model.UserItem{UserID: "pat-1", Role: model.RolePatient, FullName: "Pat Patient"})
	repo.CreateUser(ctx, model.UserItem{UserID: "doc-1", Role: model.RoleDoctor, FullName: "Doc Doctor", Specialization: "cardiology"})

	doctors, err := service.ListDoctors(ctx)
	if err != nil {
		t.Fatalf("list doctors: %v", err)
	}
	if len(doctors) != 1 {
		t.Fatalf("expected one doctor, got %d", len(doctors))
	}
	if doctors[0].UserID != "doc-1" || doctors[0].Specialization != "cardiology" {
		t.Fatalf("unexpected doctor %+v", doctors[0])
	}
}

func TestIdentityFromAuthorizationHeader(t *testing.T) {
	service, _ := setupAuth(t)

	token, err := internaljwt.CreateToken(internaljwt.User{Id: "pat-1", Email: "pat@example.com"}, internaljwt.RolePatient, 0)
	if err != nil {
		t.Fatal(err)
	}

	identity, err := service.IdentityFromAuthorizationHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	if identity.UserID != "pat-1" || identity.Role != "patient" || identity.Email != "pat@example.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	for _, header := range []string{"", "Bearer", "Basic " + token, "Bearer garbage"} {
		_, err := service.IdentityFromAuthorizationHeader(header)
		var serviceErr *Error
		if !errors.As(err, &serviceErr) || serviceErr.Code != ErrorCodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", header, err)
		}
	}
}

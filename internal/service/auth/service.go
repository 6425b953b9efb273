package auth

import (
	"context"
	"strings"
	"time"

	"care-chat-backend/internal/database"
	internaljwt "care-chat-backend/internal/jwt"
	"care-chat-backend/internal/model"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

var createTokenWithRefresh = internaljwt.CreateTokenWithRefresh

// SetTokenIssuer swaps the token issuer, used by tests to avoid Redis.
func SetTokenIssuer(issuer func(internaljwt.User, internaljwt.Role, int64) (internaljwt.TokenResponse, error)) {
	if issuer == nil {
		createTokenWithRefresh = internaljwt.CreateTokenWithRefresh
		return
	}
	createTokenWithRefresh = issuer
}

func New(db *database.Database) *Service {
	return &Service{
		repo: NewDynamoRepository(db),
		now:  time.Now,
	}
}

func NewWithRepository(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo: repo,
		now:  now,
	}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	password := strings.TrimSpace(params.Password)
	fullName := strings.TrimSpace(params.FullName)

	if email == "" || password == "" || params.Role == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "email, password and role are required", nil)
	}

	role, ok := internaljwt.RoleFromName(params.Role)
	if !ok {
		return AuthResult{}, newError(ErrorCodeValidation, `role must be "patient" or "doctor"`, nil)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return AuthResult{}, newError(ErrorCodeConflict, "email already registered", nil)
	} else if err != ErrNotFound {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to check email", err)
	}

	newUser, err := internaljwt.NewUser(internaljwt.RegisterUser{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to prepare user", err)
	}

	newUser.Id = uuid.NewString()

	user := model.UserItem{
		UserID:         newUser.Id,
		Email:          email,
		FullName:       fullName,
		Role:           params.Role,
		Specialization: strings.TrimSpace(params.Specialization),
		PasswordHash:   newUser.PasswordHash,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to save user", err)
	}

	tokens, err := createTokenWithRefresh(newUser, role, 0)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}

	return AuthResult{
		User:   user,
		Tokens: tokens,
	}, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	email := normalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return AuthResult{}, newError(ErrorCodeValidation, "email and password are required", nil)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return AuthResult{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return AuthResult{}, newError(ErrorCodeInternal, "failed to look up user", err)
	}

	if !internaljwt.ValidatePassword(user.PasswordHash, params.Password) {
		return AuthResult{}, newError(ErrorCodeUnauthorized, "invalid password", nil)
	}

	role, ok := internaljwt.RoleFromName(user.Role)
	if !ok {
		return AuthResult{}, newError(ErrorCodeInternal, "user has unknown role", nil)
	}

	tokens, err := createTokenWithRefresh(internaljwt.User{
		Id:    user.UserID,
		Email: user.Email,
	}, role, 0)
	if err != nil {
		return AuthResult{}, newError(ErrorCodeInternal, "failed to issue tokens", err)
	}

	return AuthResult{
		User:   user,
		Tokens: tokens,
	}, nil
}

func (s *Service) Me(ctx context.Context, identity Identity) (model.UserItem, error) {
	user, err := s.repo.GetUser(ctx, identity.UserID)
	if err != nil {
		if err == ErrNotFound {
			return model.UserItem{}, newError(ErrorCodeNotFound, "user not found", err)
		}
		return model.UserItem{}, newError(ErrorCodeInternal, "failed to fetch user", err)
	}
	return user, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]DoctorProfile, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to fetch doctors", err)
	}

	profiles := make([]DoctorProfile, 0, len(doctors))
	for _, doctor := range doctors {
		profiles = append(profiles, DoctorProfile{
			UserID:         doctor.UserID,
			FullName:       doctor.FullName,
			Specialization: doctor.Specialization,
		})
	}
	return profiles, nil
}

// IdentityFromAuthorizationHeader resolves the caller from the HTTP
// "Bearer <token>" header form.
func (s *Service) IdentityFromAuthorizationHeader(header string) (Identity, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Identity{}, newError(ErrorCodeUnauthorized, "invalid token format", nil)
	}

	claims, role, err := internaljwt.ParseAnyToken(parts[1])
	if err != nil {
		return Identity{}, newError(ErrorCodeUnauthorized, "unauthorized", err)
	}

	userID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return Identity{}, newError(ErrorCodeUnauthorized, "unauthorized", nil)
	}

	return Identity{
		UserID: userID,
		Email:  email,
		Role:   internaljwt.RoleNames[role],
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

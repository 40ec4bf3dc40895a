package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myvoice974/account-api/internal/domain"
	googleinfra "github.com/myvoice974/account-api/internal/infrastructure/google"
	"github.com/myvoice974/account-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserStore is the subset of the users table the account surface needs.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TokenSigner issues bearer tokens for an authenticated user.
type TokenSigner interface {
	Sign(userID, role string) (string, error)
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*googleinfra.Payload, error)
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) (bearer string, user *domain.User, err error)
	LoginWithGoogle(ctx context.Context, idToken string) (bearer string, user *domain.User, err error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
}

type ServiceDeps struct {
	UserRepo UserStore
	Signer   TokenSigner
	Google   GoogleVerifier
}

type service struct {
	users  UserStore
	signer TokenSigner
	google GoogleVerifier
}

func NewService(d ServiceDeps) Service {
	return &service{users: d.UserRepo, signer: d.Signer, google: d.Google}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         domain.RoleUser,
		AuthProvider: "local",
		Points:       0,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Unknown email and wrong password are indistinguishable on purpose.
		return "", nil, ErrInvalidCredentials
	}
	if !u.Enable {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	bearer, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return bearer, u, nil
}

func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (string, *domain.User, error) {
	p, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return "", nil, err
	}
	if !p.EmailVerified {
		return "", nil, fmt.Errorf("google account email not verified: %w", domain.ErrUnauthorized)
	}

	u, err := s.users.GetByEmail(ctx, p.Email)
	switch {
	case err == nil:
		if u.GoogleSub == "" {
			if uerr := s.users.Update(ctx, u.UserID, map[string]interface{}{"google_sub": p.Sub}); uerr != nil {
				return "", nil, uerr
			}
			u.GoogleSub = p.Sub
		}
	case errors.Is(err, domain.ErrNotFound):
		now := time.Now().UTC()
		u = &domain.User{
			UserID:       id.New(),
			Email:        p.Email,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Role:         domain.RoleUser,
			AuthProvider: "google",
			GoogleSub:    p.Sub,
			Points:       0,
			Enable:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if perr := s.users.Put(ctx, u); perr != nil {
			return "", nil, perr
		}
	default:
		return "", nil, err
	}

	bearer, err := s.signer.Sign(u.UserID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return bearer, u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		if _, err := s.users.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates["email"] = *req.Email
	}
	if len(updates) > 0 {
		if err := s.users.Update(ctx, userID, updates); err != nil {
			return nil, err
		}
	}
	return s.users.Get(ctx, userID)
}

package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myvoice974/account-api/internal/domain"
	"github.com/myvoice974/account-api/internal/infrastructure/smtp"
	"github.com/myvoice974/account-api/internal/pkg/id"
	"github.com/myvoice974/account-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// codeLifetime is how long an issued passcode stays redeemable.
const codeLifetime = 5 * time.Minute

const fieldPasswordHash = "password_hash"

// Errors returned by the recovery flow. Each wraps a domain sentinel so the
// transport layer can pick the HTTP status without string matching.
var (
	ErrAccountNotFound = fmt.Errorf("no account for this email: %w", domain.ErrNotFound)
	ErrMissingFields   = fmt.Errorf("missing required fields: %w", domain.ErrBadRequest)
	ErrCodeInvalid     = fmt.Errorf("invalid or expired OTP: %w", domain.ErrUnauthorized)
	ErrCodeExpired     = fmt.Errorf("OTP has expired: %w", domain.ErrUnauthorized)
)

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// RequestResult reports how the passcode left the building. Dev is true when
// no mail gateway is configured and the code was only written to the log.
type RequestResult struct {
	Dev bool
}

// OtpStore is the subset of the otps table the recovery flow needs.
type OtpStore interface {
	Put(ctx context.Context, rec *domain.OtpRecord) error
	FindActive(ctx context.Context, email, code string) (*domain.OtpRecord, error)
	MarkConsumed(ctx context.Context, otpID string) error
}

// UserStore is the subset of the users table the recovery flow needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type Service interface {
	// RequestOTP mints a fresh passcode for the account owning email,
	// persists it and mails it. Every call creates a new independent record;
	// earlier outstanding codes stay redeemable until they expire or are
	// consumed.
	RequestOTP(ctx context.Context, email string) (*RequestResult, error)
	// ResetPassword redeems a passcode and rotates the account's password.
	// A code is accepted at most once.
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type ServiceDeps struct {
	OtpRepo  OtpStore
	UserRepo UserStore
	Mailer   smtp.Mailer
}

type service struct {
	otps   OtpStore
	users  UserStore
	mailer smtp.Mailer
}

func NewService(d ServiceDeps) Service {
	return &service{otps: d.OtpRepo, users: d.UserRepo, mailer: d.Mailer}
}

func (s *service) RequestOTP(ctx context.Context, email string) (*RequestResult, error) {
	if email == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	code, err := otp.NewCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(codeLifetime)
	rec := &domain.OtpRecord{
		OtpID:     id.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
		Consumed:  false,
		CreatedAt: now,
		TTL:       expiresAt.Unix(),
	}
	if err := s.otps.Put(ctx, rec); err != nil {
		return nil, err
	}

	if !s.mailer.Configured() {
		slog.Info("no mail gateway configured, OTP logged only", "email", email, "code", code)
		return &RequestResult{Dev: true}, nil
	}

	subject := "Réinitialisation de votre mot de passe MyVoice974"
	body := fmt.Sprintf("Votre code de vérification est : %s\nCe code expire dans 5 minutes.", code)
	if err := s.mailer.SendEmail(u.Email, subject, body); err != nil {
		// Delivery failure does not roll back the record: the caller still
		// gets a success, and the code stays redeemable if the mail made it
		// out after all.
		slog.Warn("failed to send OTP email", "email", email, "err", err)
	}
	return &RequestResult{}, nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return ErrMissingFields
	}

	rec, err := s.otps.FindActive(ctx, req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrCodeInvalid
		}
		return err
	}
	if time.Now().After(rec.ExpiresAt) {
		// The record is left as-is: expiry is a predicate over the stored
		// timestamp, not a state migration.
		return ErrCodeExpired
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	// Consumption is the commit point. The conditional write below is what
	// guarantees at-most-once redemption under concurrent resets; the loser
	// of the race sees the same failure as a wrong code.
	if err := s.otps.MarkConsumed(ctx, rec.OtpID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return ErrCodeInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

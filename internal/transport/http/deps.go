package http

import (
	"github.com/myvoice974/account-api/internal/infrastructure/dynamo"
	googleinfra "github.com/myvoice974/account-api/internal/infrastructure/google"
	jwtinfra "github.com/myvoice974/account-api/internal/infrastructure/jwt"
	"github.com/myvoice974/account-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo       *dynamo.UserRepo
	OtpRepo        *dynamo.OtpRepo
	Mailer         smtp.Mailer
	JWTProvider    *jwtinfra.Provider
	GoogleVerifier *googleinfra.Verifier
}

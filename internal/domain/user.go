package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FirstName    string    `json:"first_name" dynamodbav:"first_name"`
	LastName     string    `json:"last_name" dynamodbav:"last_name"`
	Role         string    `json:"role" dynamodbav:"role"`
	AuthProvider string    `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "local" | "google"
	GoogleSub    string    `json:"-"                       dynamodbav:"google_sub"`
	Points       int       `json:"points" dynamodbav:"points"` // rewards balance
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

package domain

import "time"

// OtpRecord is a single password-recovery passcode issued for an email
// address. PK: otp_id. Records are queried through the email-created_at-index
// GSI and are never deleted by application code; the ttl attribute lets
// DynamoDB reap them once expired.
//
// Consumed is monotonic: false -> true, flipped at most once (the store
// enforces this with a conditional update). Several unconsumed records may
// coexist for the same email; each is independently matchable until it
// expires or is consumed.
type OtpRecord struct {
	OtpID     string    `json:"otp_id" dynamodbav:"otp_id"`
	Email     string    `json:"email" dynamodbav:"email"` // as submitted, case-sensitive
	Code      string    `json:"-" dynamodbav:"code"`      // 6 ASCII digits, 100000-999999
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at"`
	Consumed  bool      `json:"consumed" dynamodbav:"consumed"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	TTL       int64     `json:"-" dynamodbav:"ttl"` // Unix seconds, DynamoDB TTL
}

package models

import (
	"crypto/rand"
	"fmt"
	"time"
)

type RefreshToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRefreshToken(userID uint, ttl time.Duration) (*RefreshToken, error) {
	id, err := RandomHex(48)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &RefreshToken{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// Usable reports whether the token may still be exchanged.
func (t *RefreshToken) Usable(now time.Time) error {
	if t.Revoked {
		return fmt.Errorf("refresh token revoked")
	}
	if now.After(t.ExpiresAt) {
		return fmt.Errorf("refresh token expired")
	}
	return nil
}

// RandomHex returns n random lowercase hex characters.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = hex[int(b[i])%len(hex)]
	}
	return string(out), nil
}

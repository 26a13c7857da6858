package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueReferralCode draws codes until one is unused in
// investors.referral_code.
func GenerateUniqueReferralCode(db *gorm.DB, length int) (string, error) {
	const maxAttempts = 100
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomString(referralAlphabet, length)
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Table("investors").Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique referral code after %d attempts", maxAttempts)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := range buf {
		out[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(out), nil
}

// Package jwt реализует генерацию и разбор подписанных JWT с данными пользователя.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и разбора JWT.
type Maker interface {
	GenerateToken(userID, username, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HMAC-SHA256 секретным ключом и ограничивает их время жизни.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

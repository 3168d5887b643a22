package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevClaims is the payload of a development token.
type DevClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// DevVerifier issues and checks HS256 tokens signed with a shared secret.
// It stands in for Firebase Auth when running locally.
type DevVerifier struct {
	secret []byte
}

func NewDevVerifier(secret string) *DevVerifier {
	return &DevVerifier{secret: []byte(secret)}
}

// Issue signs a token for id that expires after ttl.
func (v *DevVerifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &DevClaims{
		Email: id.Email,
		Name:  id.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (v *DevVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims := &DevClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{ID: claims.Subject, DisplayName: claims.Name, Email: claims.Email}, nil
}

package auth

import (
	"fmt"
	"time"

	"bizadmin/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenManager(secret string, ttl time.Duration) *tokenManager {
	return &tokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *tokenManager) enabled() bool {
	return len(m.secret) > 0
}

// Issue signs an HS256 token carrying sub, role, name and exp.
func (m *tokenManager) Issue(u domain.User) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *tokenManager) Validate(raw string) (domain.Identity, bool) {
	if !m.enabled() || raw == "" {
		return domain.Identity{}, false
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || c.Subject == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: c.Subject, Name: c.Name, Role: c.Role}, true
}

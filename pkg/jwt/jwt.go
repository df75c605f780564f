package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptySecret  = errors.New("jwt secret must not be empty")
)

// Claims represents JWT claims. LocationID is the location the caller is
// registering at; identifiers drawing their prefix from the location
// hierarchy start there.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string `json:"user_id"`
	LocationID *int64 `json:"location_id,omitempty"`
}

// Manager signs and validates HS256 tokens with a shared secret.
type Manager struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

// NewManager creates a new JWT manager.
func NewManager(secret, issuer string, duration time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if duration <= 0 {
		duration = time.Hour
	}
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		duration: duration,
	}, nil
}

// GenerateToken issues a token for userID, optionally bound to a location.
func (m *Manager) GenerateToken(userID string, locationID *int64) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		},
		UserID:     userID,
		LocationID: locationID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateToken validates a token and returns claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

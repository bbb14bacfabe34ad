package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	// ErrInvalidToken indicates a token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token has expired.
	ErrExpiredToken = errors.New("token expired")
)

// SessionClaims defines JWT claims for an admin session.
type SessionClaims struct {
	AdminID uint64 `json:"admin_id"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies HS256 admin session tokens.
type SessionIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewSessionIssuer returns an issuer signing with secret. Tokens are valid
// for expiry after issuance.
func NewSessionIssuer(secret string, expiry time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// WithClock replaces the time source and returns the issuer.
func (i *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	if now != nil {
		i.now = now
	}
	return i
}

// Expiry returns the configured token lifetime.
func (i *SessionIssuer) Expiry() time.Duration {
	return i.expiry
}

// Issue signs a session token for adminID.
func (i *SessionIssuer) Issue(adminID uint64) (string, time.Time, error) {
	now := i.now().UTC()
	expiresAt := now.Add(i.expiry)
	claims := SessionClaims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a session token and returns its claims.
func (i *SessionIssuer) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.AdminID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify reports the admin a token belongs to. Any failure yields false.
func (i *SessionIssuer) Verify(tokenString string) (uint64, bool) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return 0, false
	}
	return claims.AdminID, true
}

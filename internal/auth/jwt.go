package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errEmptySecret = errors.New("auth: empty secret")

// Claims represents JWT claims used by this service.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SignJWT serializes a session as an HS256 token.
func SignJWT(session Session, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errEmptySecret
	}
	if !session.Authenticated() {
		return "", errors.New("auth: anonymous session")
	}
	claims := Claims{
		TenantID: session.TenantID,
		Role:     string(session.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Subject,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseJWT validates a JWT and returns the session it encodes.
func ParseJWT(tokenString string, secret []byte) (Session, error) {
	if tokenString == "" {
		return Session{}, errors.New("auth: empty token")
	}
	if len(secret) == 0 {
		return Session{}, errEmptySecret
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("auth: invalid token")
	}
	role, ok := NormalizeRole(claims.Role)
	if !ok {
		return Session{}, errors.New("auth: invalid role")
	}
	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		return Session{}, errors.New("auth: token expired")
	}

	session := Session{
		Subject:   claims.Subject,
		TenantID:  claims.TenantID,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if !session.Authenticated() {
		return Session{}, errors.New("auth: missing subject")
	}
	return session, nil
}

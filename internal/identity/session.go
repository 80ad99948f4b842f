// Package identity reconciles the remote authentication session with
// the locally cached credentials into a single stable identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNoSession    = errors.New("no active session")
)

// Session is the capability surface consumed from the authentication
// collaborator. The core never calls anything else on it.
type Session interface {
	// Loaded reports whether the collaborator has finished its session
	// check. Until then the answer to SignedIn is not meaningful.
	Loaded() bool

	// SignedIn reports whether a session exists.
	SignedIn() bool

	// PrimaryEmail returns the session's primary email address, or ""
	// when signed out.
	PrimaryEmail() string

	// SignOut ends the session.
	SignOut(ctx context.Context) error
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates session tokens.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a JWT manager. secretKey should be a strong
// random string; tokenDuration is how long issued tokens remain valid.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a signed session token for the given email.
func (m *JWTManager) Generate(email string) (string, error) {
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Validate parses and validates a session token, returning the claims
// if valid.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenSession is a Session backed by a JWT. The token is validated
// once; an invalid or absent token yields a loaded, signed-out session.
type TokenSession struct {
	mu    sync.Mutex
	email string
}

var _ Session = (*TokenSession)(nil)

// NewTokenSession validates token with manager and returns the
// resulting session. A missing or invalid token is not an error; it is
// a signed-out session.
func NewTokenSession(manager *JWTManager, token string) *TokenSession {
	s := &TokenSession{}
	if token == "" {
		return s
	}
	claims, err := manager.Validate(token)
	if err != nil {
		return s
	}
	s.email = claims.Email
	return s
}

// Loaded always reports true: validation happens in NewTokenSession.
func (s *TokenSession) Loaded() bool { return true }

func (s *TokenSession) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email != ""
}

func (s *TokenSession) PrimaryEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// SignOut discards the session's identity.
func (s *TokenSession) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.email == "" {
		return ErrNoSession
	}
	s.email = ""
	return nil
}

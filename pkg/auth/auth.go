package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated principal attached to a connection or
// request after successful token verification.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// Roles issued by the account system.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
)

var ErrInvalidToken = errors.New("token is not valid")

// Verifier checks a bearer credential and returns the identity it encodes.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// JWTVerifier verifies HS256 tokens signed with a shared secret. Token
// claims nest the principal under "user": {"user":{"id","role","name"}},
// with standard "exp" expiry.
type JWTVerifier struct {
	mu     sync.RWMutex
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// SetSecret swaps the shared secret, allowing rotation on config reload.
func (v *JWTVerifier) SetSecret(secret string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.secret = []byte(secret)
}

func (v *JWTVerifier) key() []byte {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.secret
}

func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.key(), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, ok := claims["user"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing user claim", ErrInvalidToken)
	}
	ident := &Identity{
		ID:   stringClaim(user, "id"),
		Role: stringClaim(user, "role"),
		Name: stringClaim(user, "name"),
	}
	if ident.ID == "" {
		return nil, fmt.Errorf("%w: user claim missing id", ErrInvalidToken)
	}
	return ident, nil
}

// Sign issues a token for ident expiring after ttl. Used by the account
// system and by tests.
func (v *JWTVerifier) Sign(ident Identity, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user": map[string]any{
			"id":   ident.ID,
			"role": ident.Role,
			"name": ident.Name,
		},
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})
	signed, err := token.SignedString(v.key())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func stringClaim(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

package security

import (
	"fintrack/internal/common"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SigningAlgorithm is the only algorithm tokens are issued or accepted with.
const SigningAlgorithm = "HS256"

var (
	ErrMissingToken = common.NewError(common.ErrUnauthorized, "missing token")
	ErrInvalidToken = common.NewError(common.ErrUnauthorized, "invalid token")
)

// Claims is the identity carried by a verified token.
type Claims struct {
	UserID    string
	Username  string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuedToken is a freshly minted bearer token.
type IssuedToken struct {
	Token     string
	ExpiresIn time.Duration
}

type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenService(key []byte, ttl time.Duration) *TokenService {
	return &TokenService{
		auth: jwtauth.New(SigningAlgorithm, key, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Issue signs a token for the user that expires after the service TTL.
func (s *TokenService) Issue(userID, username, role string) (*IssuedToken, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"user_id":  userID,
		"username": username,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: tokenString, ExpiresIn: s.ttl}, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported
// as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil || token == nil {
		return nil, ErrInvalidToken
	}
	claims, err := claimsFromMap(token.PrivateClaims())
	if err != nil {
		return nil, err
	}
	claims.IssuedAt = token.IssuedAt()
	claims.ExpiresAt = token.Expiration()
	return claims, nil
}

// claimsFromMap extracts the identity claims from a token's private claims.
func claimsFromMap(m map[string]interface{}) (*Claims, error) {
	userID, ok := m["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}
	role, ok := m["role"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	username, _ := m["username"].(string)

	return &Claims{UserID: userID, Username: username, Role: role}, nil
}

package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the caller a request acts for.
type Identity struct {
	ActorID  string
	TenantID string
}

// AuthService issues and verifies the HS256 bearer tokens API callers present.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *AuthService) GenerateJWT(identity Identity) (string, error) {
	if identity.ActorID == "" || identity.TenantID == "" {
		return "", ErrMissingIdentity
	}

	claims := jwt.MapClaims{
		"sub":       identity.ActorID,
		"tenant_id": identity.TenantID,
		"exp":       time.Now().Add(s.jwtExpiry).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	actorID, _ := claims["sub"].(string)
	tenantID, _ := claims["tenant_id"].(string)
	if actorID == "" || tenantID == "" {
		return nil, fmt.Errorf("%w: missing subject or tenant", ErrInvalidToken)
	}

	return &Identity{ActorID: actorID, TenantID: tenantID}, nil
}

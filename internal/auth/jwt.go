// internal/auth/jwt.go
package auth

import (
	"errors"
	"time"

	"github.com/KiranPolaki/BudgetTracker/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrNotRefreshToken = errors.New("not a refresh token")
)

// TokenPair is what register and login hand back to the client.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type TokenService struct {
	secretKey        []byte
	accessExpiresIn  time.Duration
	refreshExpiresIn time.Duration
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secretKey:        []byte(cfg.JWTSecret),
		accessExpiresIn:  cfg.JWTAccessExpiresIn,
		refreshExpiresIn: cfg.JWTRefreshExpiresIn,
	}
}

// GeneratePair issues a new access/refresh token pair for the user.
func (s *TokenService) GeneratePair(userID int64) (TokenPair, error) {
	access, err := s.generate(userID, "access", s.accessExpiresIn)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.generate(userID, "refresh", s.refreshExpiresIn)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) generate(userID int64, tokenType string, expiresIn time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"exp":        time.Now().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseAccess validates an access token and returns the user id.
func (s *TokenService) ParseAccess(tokenStr string) (int64, error) {
	return s.parse(tokenStr, "access")
}

// Refresh validates a refresh token and issues a fresh access token.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	userID, err := s.parse(refreshToken, "refresh")
	if err != nil {
		if errors.Is(err, ErrNotRefreshToken) {
			return "", err
		}
		return "", ErrInvalidToken
	}
	return s.generate(userID, "access", s.accessExpiresIn)
}

func (s *TokenService) parse(tokenStr, wantType string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		if wantType == "refresh" {
			return 0, ErrNotRefreshToken
		}
		return 0, ErrInvalidToken
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || int64(userIDFloat) <= 0 {
		return 0, ErrInvalidToken
	}
	return int64(userIDFloat), nil
}

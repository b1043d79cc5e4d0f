package utils

import (
	"errors"
	"time"

	"devsync/config"
	"devsync/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Claims struct {
	UserID       uint   `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	TokenType    string `json:"token_type"`
	SessionID    string `json:"sid"`
	jwt.RegisteredClaims
}

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

func signToken(user *models.User, sessionID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		TokenType:    tokenType,
		SessionID:    sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// GenerateJWTToken returns an access and a refresh token for user.
// Both tokens share one session id.
func GenerateJWTToken(user *models.User) (string, string, error) {
	sessionID := uuid.NewString()
	access, err := signToken(user, sessionID, "access", AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := signToken(user, sessionID, "refresh", RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func RefreshTokens(db *gorm.DB, refreshToken string) (string, string, error) {
	claims, err := ParseJWTToken(refreshToken)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != "refresh" {
		return "", "", errors.New("not a refresh token")
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return "", "", errors.New("user not found")
	}
	if !user.IsActive {
		return "", "", errors.New("account is not active")
	}
	if user.TokenVersion != claims.TokenVersion {
		return "", "", errors.New("refresh token revoked")
	}
	return GenerateJWTToken(&user)
}

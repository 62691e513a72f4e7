package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cppla/board/config"
)

// Claims is the token payload: {id, email, nickName} plus registered claims.
type Claims struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	NickName string `json:"nickName"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 token for the user, valid for duration.
func GenerateToken(userID uint, email, nickName string, duration time.Duration) (string, error) {
	cfg := config.Get()
	if duration <= 0 {
		duration = time.Duration(cfg.JWTExpireMinutes) * time.Minute
	}
	now := time.Now()

	claims := Claims{
		ID:       userID,
		Email:    email,
		NickName: nickName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates signature and expiry and returns the claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

package utils

import (
	"errors"
	"time"

	"meridian/config"
	"meridian/models"

	"github.com/golang-jwt/jwt"
)

// Claims carried by every bearer token.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

func secretKey() ([]byte, error) {
	if config.AppConfig.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(config.AppConfig.JWTSecret), nil
}

// GenerateToken creates a signed JWT for subject acting as role.
// The token expires after the specified duration.
func GenerateToken(subject string, role models.Role, duration time.Duration) (string, error) {
	if !role.Valid() {
		return "", errors.New("unknown role")
	}
	key, err := secretKey()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken parses tokenString and returns the caller it identifies.
func ValidateToken(tokenString string) (models.Caller, error) {
	key, err := secretKey()
	if err != nil {
		return models.Caller{}, err
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return models.Caller{}, err
	}
	if !token.Valid {
		return models.Caller{}, errors.New("invalid token")
	}
	role := models.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return models.Caller{}, errors.New("token does not carry a valid subject and role")
	}
	return models.Caller{ID: claims.Subject, Role: role}, nil
}

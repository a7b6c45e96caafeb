package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	BusinessId string `json:"business_id"`
	jwt.StandardClaims
}

const devJwtSecret = "SalesReport-Dev-Secret"

var ErrorJwtSecretMissing = errors.New("API_SECRET is required outside development")

func isDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GO_ENV"))) {
	case "development", "dev", "test":
		return true
	}
	return false
}

// JwtSecret returns API_SECRET. Only development and test environments may
// run without one.
func JwtSecret() ([]byte, error) {
	if secret := os.Getenv("API_SECRET"); secret != "" {
		return []byte(secret), nil
	}
	if isDevelopment() {
		return []byte(devJwtSecret), nil
	}
	return nil, ErrorJwtSecretMissing
}

func JwtGenerate(userID int, username string, businessId string, lifespan time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:         userID,
		Username:   username,
		BusinessId: businessId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(lifespan).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})
	secret, err := JwtSecret()
	if err != nil {
		return "", err
	}
	return t.SignedString(secret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return JwtSecret()
	})
}

package main

import (
	"encoding/base64"
	"errors"
	"os"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raiyanplanet/Wibloo/models"
)

// LoadConfig pulls the secret side of the configuration from .env.
func LoadConfig() (models.Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		return models.Config{}, err
	}
	config := models.Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}
	secret64 := os.Getenv("JWT_SECRET")
	secret, err := base64.StdEncoding.DecodeString(secret64)
	if err != nil || len(secret) == 0 {
		return models.Config{}, errors.New("JWT_SECRET must be a non-empty base64 string")
	}
	config.JWTSecret = secret
	return config, nil
}

// LoadAppConfig reads the non-secret side from config.yaml.
func LoadAppConfig(path string) (*models.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var config models.AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

const (
	tokenIssuer   = "wibloo"
	tokenAudience = "wibloo_api"
	tokenLifetime = 24 * time.Hour
)

func GenerateToken(userId string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userId,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	})
	return token.SignedString(secret)
}

func ValidateToken(tokenString string, secret []byte) (string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(tokenAudience),
		jwt.WithIssuer(tokenIssuer),
	)
	claims := jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("token expired")
		}
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("token is not valid")
	}
	return claims.Subject, nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func checkRegistration(username, email, password string) error {
	if len(username) < 2 {
		return errors.New("username must be at least 2 characters")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	if len(password) < 4 {
		return errors.New("password must be at least 4 characters")
	}
	return nil
}

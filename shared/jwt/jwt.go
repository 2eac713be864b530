package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
)

// Tokens are issued by the identity provider; NewToken exists for tooling
// and tests that need to act as a given user.
type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(user domain.User) (string, error) {
	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["email"] = user.Email
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func unauthorized(message string) error {
	return &shared_errors.ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized, Code: "unauthorized"}
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, unauthorized(fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]))
		}
		return []byte(j.secretKey), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, unauthorized("Access token expired")
		}
		return nil, unauthorized("Invalid token signature")
	}

	if !token.Valid {
		return nil, unauthorized("Invalid access token")
	}

	return token, nil
}

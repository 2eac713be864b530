package middleware

import (
	"context"
	"math"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	jwt_internal "github.com/ledgerdesk/ledgerdesk/shared/jwt"
	"github.com/ledgerdesk/ledgerdesk/shared/logger"
	"github.com/ledgerdesk/ledgerdesk/shared/utils"
)

// Key to store the user claims in the request context
type key int

const UserClaimsKey key = 0

// Auth verifies bearer tokens issued by the identity provider.
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that requires authentication
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil {
				switch err {
				case errNoToken:
					utils.WriteErrorAndStatusCode(w, unauthorized("Please sign-in"))
				case errInvalidClaims:
					logger.Log.Warn("invalid jwt claims", "path", r.URL.Path)
					utils.WriteErrorAndStatusCode(w, unauthorized("Invalid token"))
				default:
					// Token decode error
					utils.WriteErrorAndStatusCode(w, err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractUser reads the token from the Authorization header, falling back
// to the accessToken cookie set by the web client.
func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	var tokenString string
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = strings.TrimSpace(token)
	} else if accessCookie, err := r.Cookie("accessToken"); err == nil {
		tokenString = accessCookie.Value
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidClaims
	}

	uidFloat, ok := claims["uid"].(float64)
	if !ok || uidFloat <= 0 || uidFloat != math.Trunc(uidFloat) {
		return nil, errInvalidClaims
	}
	email, _ := claims["email"].(string)

	return &domain.User{Id: domain.UserId(uidFloat), Email: email}, nil
}

// Sentinel errors for extractUser
var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

func unauthorized(message string) error {
	return &shared_errors.ErrorWithStatusCode{Message: message, StatusCode: http.StatusUnauthorized, Code: "unauthorized"}
}

// GetUserFromContext retrieves the user from the context
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

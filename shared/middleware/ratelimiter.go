package middleware

import (
	"fmt"
	"net"
	"net/http"

	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	"github.com/ledgerdesk/ledgerdesk/shared/middleware/ratelimiter"
	"github.com/ledgerdesk/ledgerdesk/shared/utils"
)

var errRateLimited = &shared_errors.ErrorWithStatusCode{Message: "Rate limit exceeded, try again later", StatusCode: http.StatusTooManyRequests, Code: "rate_limited"}

// RateLimit rejects requests whose identity has no tokens left.
func RateLimit(rl *ratelimiter.Limiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				utils.WriteErrorAndStatusCode(w, errRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext is usable after NeedAuth
func GetUserIDFromContext(r *http.Request) (string, error) {
	user := GetUserFromContext(r)
	if user == nil {
		return "", unauthorized("Please sign-in")
	}
	return fmt.Sprintf("user_%d", user.Id), nil
}

// GetIP extracts the client IP from RemoteAddr.
// Forwarding headers are not trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if net.ParseIP(ip) == nil {
		return "", &shared_errors.ErrorWithStatusCode{Message: "Invalid client address", StatusCode: http.StatusBadRequest, Code: "validation_error"}
	}
	return ip, nil
}

package jwt

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerdesk/ledgerdesk/shared/domain"
	shared_errors "github.com/ledgerdesk/ledgerdesk/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDecodeToken(t *testing.T) {
	svc := New("secret", time.Hour)
	tokenStr, err := svc.NewToken(domain.User{Id: 42, Email: "ann@example.com"})
	require.NoError(t, err)

	token, err := svc.DecodeToken(tokenStr)
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["uid"])
	assert.Equal(t, "ann@example.com", claims["email"])
}

func TestDecodeTokenRejects(t *testing.T) {
	svc := New("secret", time.Hour)

	wrongKey, err := New("other", time.Hour).NewToken(domain.User{Id: 1})
	require.NoError(t, err)
	expired, err := New("secret", -time.Minute).NewToken(domain.User{Id: 1})
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": 1}).SignedString([]byte("secret"))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 1, "exp": time.Now().Add(time.Hour).Unix()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":   "not.a.token",
		"wrong key": wrongKey,
		"expired":   expired,
		"no exp":    noExp,
		"alg none":  none,
	}
	for name, tokenStr := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.DecodeToken(tokenStr)
			var e *shared_errors.ErrorWithStatusCode
			require.ErrorAs(t, err, &e)
			assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
		})
	}
}

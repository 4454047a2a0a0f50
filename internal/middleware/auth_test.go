package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		DisplayName: "Test User",
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthAcceptsValidToken(t *testing.T) {
	var gotUserID, gotName string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotName = GetDisplayName(r.Context())
	})

	rec := httptest.NewRecorder()
	Auth(testSecret)(next).ServeHTTP(rec, authedRequest(signToken(t, testSecret, "user-1")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", gotUserID)
	assert.Equal(t, "Test User", gotName)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth(testSecret)(http.NotFoundHandler()).ServeHTTP(rec, authedRequest(""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth(testSecret)(http.NotFoundHandler()).ServeHTTP(rec,
		authedRequest(signToken(t, "other-secret", "user-1")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsEmptySubject(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth(testSecret)(http.NotFoundHandler()).ServeHTTP(rec,
		authedRequest(signToken(t, testSecret, "")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateTripID(t *testing.T) {
	assert.NoError(t, ValidateTripID("0190f8a0-8c1e-7abc-9def-0123456789ab"))
	assert.Error(t, ValidateTripID("not-a-uuid"))
	assert.Error(t, ValidateTripID(""))
}

func TestValidateMessageText(t *testing.T) {
	assert.NoError(t, ValidateMessageText("rome please"))
	assert.Error(t, ValidateMessageText(""))
	assert.Error(t, ValidateMessageText(string(make([]byte, 10001))))
	assert.Error(t, ValidateMessageText(string([]byte{0xff, 0xfe})))
}

func TestValidateTripName(t *testing.T) {
	assert.NoError(t, ValidateTripName("Summer 2026"))
	assert.Error(t, ValidateTripName(""))
}

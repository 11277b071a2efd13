package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/handler/dto"
	"github.com/mtlprog/bitacora/internal/middleware"
)

var secret = []byte("test-secret")

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := middleware.GetUserFromContext(r.Context())
		require.NoError(t, err)
		w.Header().Set("X-User-ID", strconv.FormatInt(user.ID, 10))
		w.Header().Set("X-Role", string(user.Role))
		w.WriteHeader(http.StatusOK)
	})
}

func request(t *testing.T, h http.Handler, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/task-requests", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestIssueAndParseToken(t *testing.T) {
	token, err := middleware.IssueToken(secret, 42, domain.RoleAssigner, time.Hour)
	require.NoError(t, err)

	user, err := middleware.ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, domain.RoleAssigner, user.Role)

	_, err = middleware.ParseToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = middleware.IssueToken(secret, 42, "JANITOR", time.Hour)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := middleware.IssueToken(secret, 42, domain.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	_, err = middleware.ParseToken(secret, token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := middleware.Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = middleware.ParseToken(secret, token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	h := middleware.NewAuthMiddleware(secret).Authenticate(echoUser(t))

	t.Run("missing header", func(t *testing.T) {
		rec := request(t, h, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		rec := request(t, h, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := request(t, h, "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := middleware.IssueToken(secret, 7, domain.RoleExecutor, time.Hour)
		require.NoError(t, err)

		rec := request(t, h, "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7", rec.Header().Get("X-User-ID"))
		assert.Equal(t, string(domain.RoleExecutor), rec.Header().Get("X-Role"))
	})
}

func TestRequireRoles(t *testing.T) {
	auth := middleware.NewAuthMiddleware(secret)
	h := auth.Authenticate(middleware.RequireRoles(domain.RoleAssigner, domain.RoleAdmin)(echoUser(t)))

	for role, want := range map[domain.Role]int{
		domain.RoleAssigner:  http.StatusOK,
		domain.RoleAdmin:     http.StatusOK,
		domain.RoleRequester: http.StatusForbidden,
		domain.RoleExecutor:  http.StatusForbidden,
	} {
		token, err := middleware.IssueToken(secret, 1, role, time.Hour)
		require.NoError(t, err)

		rec := request(t, h, "Bearer "+token)
		assert.Equal(t, want, rec.Code, role)
	}

	// Without Authenticate in front there is no user.
	rec := request(t, middleware.RequireRoles(domain.RoleAdmin)(echoUser(t)), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/password"
	"identity-service/internal/repository/memory"
	"identity-service/internal/service"
	"identity-service/internal/token"
)

func newTestRouter(t *testing.T) (*gin.Engine, *token.Issuer) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	issuer := token.NewIssuer([]byte("test-secret"), time.Hour)
	accounts := service.NewAccountService(
		memory.NewAccountRepository(),
		password.NewBcryptHasher(4),
		issuer,
	)

	router := gin.New()
	NewHandler(accounts, logger).RegisterRoutes(router)
	return router, issuer
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func registerAnn(t *testing.T, router *gin.Engine) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"fullName": "Ann",
		"email":    "ann@x.com",
		"password": "abc12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register body: %s", rec.Body.String())
}

func TestRegisterCreated(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"fullName": "Ann",
		"email":    "ann@x.com",
		"password": "abc12345",
		"bio":      "hello",
		"dob":      "1990-04-02",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Success", body["message"])
	assert.NotContains(t, body, "data", "register must not echo account data")
}

func TestRegisterValidationError(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"fullName": "",
		"email":    "not-an-email",
		"password": "short1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Validation Error", body["message"])

	detail, ok := body["detail"].([]any)
	require.True(t, ok, "detail must be an array, body: %s", rec.Body.String())
	assert.Len(t, detail, 3, "one entry per violated field")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"fullName": "Other Ann",
		"email":    "ann@x.com",
		"password": "other123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is already registered")
}

func TestRegisterMalformedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation Error")
}

func TestLoginSuccessIssuesVerifiableToken(t *testing.T) {
	router, issuer := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "ann@x.com",
		"password": "abc12345",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Success", body["message"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	tok, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, tok)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AccountID)
	assert.Equal(t, "ann@x.com", claims.Email)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAnn(t, router)

	wrongPass := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "ann@x.com",
		"password": "wrong1234",
	})
	unknownEmail := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "nobody@x.com",
		"password": "abc12345",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPass.Body.String(), unknownEmail.Body.String(),
		"failure responses must not reveal which factor failed")
}

func TestListUsersEmpty(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestListUsersExcludesPasswordHash(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)

	account, ok := data[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ann@x.com", account["email"])
	assert.NotContains(t, account, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")
}

func TestGetUser(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	account, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), account["id"])
	assert.Equal(t, "Ann", account["fullName"])
	assert.NotContains(t, account, "passwordHash")
}

func TestGetUserMisses(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAnn(t, router)

	for _, path := range []string{"/users/999", "/users/abc"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "path %s", path)
		assert.Contains(t, rec.Body.String(), "User not found")
	}
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	echo := httptest.NewRecorder()
	router.ServeHTTP(echo, req)
	assert.Equal(t, "caller-supplied", echo.Header().Get("X-Request-ID"))
}

func TestEndToEndScenario(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"fullName": "Ann",
		"email":    "ann@x.com",
		"password": "abc12345",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	ok := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "ann@x.com",
		"password": "abc12345",
	})
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), "token")

	bad := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email":    "ann@x.com",
		"password": "wrong1234",
	})
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Contains(t, bad.Body.String(), "Login Failed")
}

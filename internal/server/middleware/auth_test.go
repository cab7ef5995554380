package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/generative-proxy/internal/config"
)

type testTokenValidator struct {
	validTokens map[string]string
}

func (v *testTokenValidator) ValidateToken(tokenString string) (SubjectGetter, error) {
	subject, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(subject), nil
}

type testClaims string

func (c testClaims) GetSubject() (string, error) {
	return string(c), nil
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, setup func(r *http.Request)) (*httptest.ResponseRecorder, string, bool) {
	t.Helper()

	var (
		called  bool
		subject string
	)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		subject, _ = GetSubject(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/config/prompt", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, subject, called
}

func TestAdminAuth_NoSecretConfigured(t *testing.T) {
	w, _, called := serve(t, AdminAuth(config.AdminAuth{}, nil), nil)
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminAuth_SharedSecret(t *testing.T) {
	mw := AdminAuth(config.AdminAuth{Token: "s3cret"}, nil)

	w, subject, called := serve(t, mw, func(r *http.Request) { r.Header.Set(HeaderAdminToken, "s3cret") })
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, SharedSecretSubject, subject)

	w, _, called = serve(t, mw, func(r *http.Request) { r.Header.Set(HeaderAdminToken, "wrong") })
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Unauthorized", body["error"])
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	w, _, called := serve(t, AdminAuth(config.AdminAuth{Token: "s3cret"}, nil), nil)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestAdminAuth_JWT(t *testing.T) {
	tokens := &testTokenValidator{validTokens: map[string]string{"jwt-abc": "ops"}}
	mw := AdminAuth(config.AdminAuth{Token: "s3cret"}, tokens)

	tests := []struct {
		name        string
		header      string
		value       string
		wantCalled  bool
		wantSubject string
	}{
		{name: "admin header jwt", header: HeaderAdminToken, value: "jwt-abc", wantCalled: true, wantSubject: "ops"},
		{name: "bearer jwt", header: "Authorization", value: "Bearer jwt-abc", wantCalled: true, wantSubject: "ops"},
		{name: "lowercase bearer", header: "Authorization", value: "bearer jwt-abc", wantCalled: true, wantSubject: "ops"},
		{name: "secret still accepted", header: HeaderAdminToken, value: "s3cret", wantCalled: true, wantSubject: SharedSecretSubject},
		{name: "unknown token", header: HeaderAdminToken, value: "jwt-xyz"},
		{name: "malformed authorization", header: "Authorization", value: "Token jwt-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, subject, called := serve(t, mw, func(r *http.Request) { r.Header.Set(tt.header, tt.value) })
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, tt.wantSubject, subject)
			} else {
				assert.Equal(t, http.StatusUnauthorized, w.Code)
			}
		})
	}
}

func TestAdminAuth_JWTOnly(t *testing.T) {
	tokens := &testTokenValidator{validTokens: map[string]string{"jwt-abc": "ops"}}
	mw := AdminAuth(nil, tokens)

	_, _, called := serve(t, mw, nil)
	assert.False(t, called)

	_, _, called = serve(t, mw, func(r *http.Request) { r.Header.Set(HeaderAdminToken, "jwt-abc") })
	assert.True(t, called)
}

func TestAdminAuth_BcryptHash(t *testing.T) {
	hash, err := config.HashAdminToken("hashed-secret", 4)
	require.NoError(t, err)
	mw := AdminAuth(config.AdminAuth{TokenHash: hash}, nil)

	_, _, called := serve(t, mw, func(r *http.Request) { r.Header.Set(HeaderAdminToken, "hashed-secret") })
	assert.True(t, called)

	_, _, called = serve(t, mw, func(r *http.Request) { r.Header.Set(HeaderAdminToken, hash) })
	assert.False(t, called)
}

func TestGetSubject_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetSubject(req)
	assert.Error(t, err)
}

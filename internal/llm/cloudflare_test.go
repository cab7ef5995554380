package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudflareProvider_Generate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/client/v4/accounts/acct/ai/run/@cf/meta/llama-3.1-8b-instruct", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"success":true,"result":{"response":"[\"Arr\"]"},"errors":[]}`))
	}))
	defer srv.Close()

	p, err := NewCloudflareProvider("acct", "tok", srv.URL+"/client/v4", "@cf/meta/llama-3.1-8b-instruct", srv.Client())
	require.NoError(t, err)

	text, err := p.Generate(context.Background(), "sys", `["Hi"]`, 600)
	require.NoError(t, err)

	assert.Equal(t, `["Arr"]`, text)
	assert.EqualValues(t, 600, body["max_tokens"])
	assert.InDelta(t, 0.8, body["temperature"], 1e-9)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestCloudflareProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "non-2xx", status: 500, body: "oops", wantMsg: "Cloudflare AI API 500: oops"},
		{name: "object response", status: 200, body: `{"result":{"response":{"a":1}}}`, wantMsg: "Cloudflare AI returned empty content"},
		{name: "missing response", status: 200, body: `{"result":{}}`, wantMsg: "Cloudflare AI returned empty content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewCloudflareProvider("acct", "tok", srv.URL, "m", srv.Client())
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), "s", "[]", 10)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, NameCloudflare, perr.Provider)
			assert.Equal(t, tt.wantMsg, perr.Error())
		})
	}
}

func TestNewCloudflareProvider_RequiresCredentials(t *testing.T) {
	_, err := NewCloudflareProvider("acct", "", "https://api.cloudflare.com/client/v4", "m", nil)
	assert.Error(t, err)
}

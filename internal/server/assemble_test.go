package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/generative-proxy/internal/rewriting"
)

func TestAssembleHeaders(t *testing.T) {
	winner := &rewriting.Outcome{Provider: "Cloudflare Workers AI", Model: "@cf/meta/llama-3.1-8b-instruct", Success: true}

	tests := []struct {
		name        string
		assembly    Assembly
		want        map[string]string
		wantMissing []string
	}{
		{
			name:     "customized",
			assembly: Assembly{Customized: true, PersonalityID: "surfer-dude", Winner: winner},
			want: map[string]string{
				HeaderCustomized: "true",
				HeaderProfile:    "surfer-dude",
				"Cache-Control":  "private",
				HeaderDebug:      "provider=Cloudflare Workers AI; model=@cf/meta/llama-3.1-8b-instruct",
			},
			wantMissing: []string{HeaderErrors, "Content-Length", "ETag", "Last-Modified"},
		},
		{
			name: "customized after a failure",
			assembly: Assembly{
				Customized:    true,
				PersonalityID: "surfer-dude",
				Errors:        []string{"Cerebras: Cerebras API 503: busy"},
				Winner:        winner,
			},
			want: map[string]string{
				HeaderCustomized: "true",
				HeaderErrors:     "Cerebras: Cerebras API 503: busy",
			},
			wantMissing: []string{"ETag", "Last-Modified"},
		},
		{
			name: "total failure",
			assembly: Assembly{
				PersonalityID: "surfer-dude",
				Errors:        []string{"Cerebras: boom", "Gemini: expected 1 items but got 2"},
			},
			want: map[string]string{
				HeaderCustomized: "false",
				HeaderErrors:     "Cerebras: boom; Gemini: expected 1 items but got 2",
				"Cache-Control":  "max-age=60",
				"ETag":           `"v1"`,
				"Last-Modified":  "Wed, 14 Oct 2026 10:00:00 GMT",
			},
			wantMissing: []string{HeaderProfile, HeaderDebug},
		},
		{
			name:        "provider returned identical text",
			assembly:    Assembly{PersonalityID: "surfer-dude", Winner: winner},
			want:        map[string]string{HeaderCustomized: "false", HeaderDebug: "provider=Cloudflare Workers AI; model=@cf/meta/llama-3.1-8b-instruct"},
			wantMissing: []string{HeaderProfile, HeaderErrors},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			h.Set("Content-Length", "123")
			h.Set("Cache-Control", "max-age=60")
			h.Set("ETag", `"v1"`)
			h.Set("Last-Modified", "Wed, 14 Oct 2026 10:00:00 GMT")

			AssembleHeaders(h, tt.assembly)

			for name, value := range tt.want {
				assert.Equal(t, value, h.Get(name), name)
			}
			for _, name := range tt.wantMissing {
				assert.Empty(t, h.Get(name), name)
			}
			assert.Empty(t, h.Get("Content-Length"))
		})
	}
}

func TestAssembleHeaders_ControlCharacters(t *testing.T) {
	h := http.Header{}
	AssembleHeaders(h, Assembly{Errors: []string{"Gemini: line one\nline two"}})
	assert.Equal(t, "Gemini: line one line two", h.Get(HeaderErrors))
}

func TestCopyResponseHeaders(t *testing.T) {
	src := http.Header{}
	src.Set("Content-Type", "text/html")
	src.Add("Set-Cookie", "a=1")
	src.Add("Set-Cookie", "b=2")
	src.Set("Transfer-Encoding", "chunked")
	src.Set("Connection", "close")

	dst := http.Header{}
	copyResponseHeaders(dst, src)

	assert.Equal(t, "text/html", dst.Get("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, dst.Values("Set-Cookie"))
	assert.Empty(t, dst.Get("Transfer-Encoding"))
	assert.Empty(t, dst.Get("Connection"))
	assert.Equal(t, "chunked", src.Get("Transfer-Encoding"), "source is not modified")
}

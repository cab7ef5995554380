package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRewrite(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		enabled     string
		contentType string
		want        bool
	}{
		{name: "get html true", method: http.MethodGet, enabled: "true", contentType: "text/html; charset=utf-8", want: true},
		{name: "get html 1", method: http.MethodGet, enabled: "1", contentType: "text/html", want: true},
		{name: "header missing", method: http.MethodGet, enabled: "", contentType: "text/html"},
		{name: "header false", method: http.MethodGet, enabled: "false", contentType: "text/html"},
		{name: "header yes", method: http.MethodGet, enabled: "yes", contentType: "text/html"},
		{name: "header TRUE", method: http.MethodGet, enabled: "TRUE", contentType: "text/html"},
		{name: "post", method: http.MethodPost, enabled: "true", contentType: "text/html"},
		{name: "head", method: http.MethodHead, enabled: "true", contentType: "text/html"},
		{name: "json", method: http.MethodGet, enabled: "true", contentType: "application/json"},
		{name: "no content type", method: http.MethodGet, enabled: "true", contentType: ""},
		{name: "mixed case media type", method: http.MethodGet, enabled: "true", contentType: "Text/HTML; Charset=UTF-8", want: true},
		{name: "broken parameter", method: http.MethodGet, enabled: "true", contentType: "text/html; charset", want: true},
		{name: "html as parameter only", method: http.MethodGet, enabled: "true", contentType: "text/plain; note=text/html"},
		{name: "xhtml", method: http.MethodGet, enabled: "true", contentType: "application/xhtml+xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRewrite(tt.method, tt.enabled, tt.contentType))
		})
	}
}

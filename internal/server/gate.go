package server

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// Request headers read by the proxy. None of them reach the origin.
const (
	HeaderEnabled       = "x-generative-enabled"
	HeaderPersonality   = "x-generative-personality"
	HeaderCustomizeHost = "x-customize-host"
)

// Response headers set by the proxy.
const (
	HeaderCustomized = "x-customized"
	HeaderErrors     = "x-errors"
	HeaderProfile    = "x-generative-profile"
	HeaderDebug      = "x-debug"
)

// wantsRewrite reports whether the request side of the gate is open: a GET with the
// feature header set to "1" or "true".
func wantsRewrite(method, enabled string) bool {
	return method == http.MethodGet && (enabled == "1" || enabled == "true")
}

// ShouldRewrite is the rewrite gate. Anything it rejects is passed through untouched.
func ShouldRewrite(method, enabled, contentType string) bool {
	return wantsRewrite(method, enabled) && isHTML(contentType)
}

// isHTML reports whether contentType names text/html, ignoring case and parameters.
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return false
	}
	return strings.EqualFold(mediaType, "text/html")
}

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonathan/generative-proxy/internal/rewriting"
)

// Assembly is what the proxy learned while rewriting one page.
type Assembly struct {
	Customized    bool // body differs from the origin's
	Errors        []string
	PersonalityID string
	Winner        *rewriting.Outcome
}

// copyResponseHeaders copies origin response headers to dst, minus hop-by-hop headers.
func copyResponseHeaders(dst, src http.Header) {
	src = src.Clone()
	removeHopHeaders(src)
	for name, values := range src {
		dst[name] = values
	}
}

// markPassThrough labels a response the gate rejected.
func markPassThrough(h http.Header) {
	h.Set(HeaderCustomized, "false")
}

// AssembleHeaders sets the customization headers on a response that went through the
// rewrite path. Content-Length is always dropped there since the body was re-rendered.
func AssembleHeaders(h http.Header, a Assembly) {
	h.Del("Content-Length")
	h.Set(HeaderCustomized, strconv.FormatBool(a.Customized))

	if len(a.Errors) > 0 {
		h.Set(HeaderErrors, headerSafe(strings.Join(a.Errors, "; ")))
	}

	if a.Customized {
		h.Set(HeaderProfile, a.PersonalityID)
		h.Set("Cache-Control", "private")
		// origin validators do not match the rewritten body
		h.Del("ETag")
		h.Del("Last-Modified")
	}

	if a.Winner != nil && a.Winner.Provider != "" {
		h.Set(HeaderDebug, fmt.Sprintf("provider=%s; model=%s", a.Winner.Provider, a.Winner.Model))
	}
}

// headerSafe flattens control characters so provider error bodies cannot break the header.
func headerSafe(value string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, value)
}

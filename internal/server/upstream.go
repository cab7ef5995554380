package server

import (
	"fmt"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/jonathan/generative-proxy/internal/server/middleware"
)

// hopHeaders are connection-scoped and never forwarded in either direction.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// controlHeaders steer the proxy and are removed before forwarding.
var controlHeaders = []string{
	HeaderEnabled,
	HeaderPersonality,
	HeaderCustomizeHost,
	middleware.HeaderAdminToken,
}

func removeHopHeaders(h http.Header) {
	for _, value := range h.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = textproto.TrimString(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

// BuildUpstreamRequest rewrites an inbound request to target the origin. The origin is the
// x-customize-host header when present, otherwise defaultOrigin. A request for "/" goes to
// the origin's own path; any other path is appended to the origin path. When the response
// may be rewritten, Accept-Encoding is dropped so the body arrives uncompressed.
func BuildUpstreamRequest(r *http.Request, defaultOrigin string) (*http.Request, error) {
	originBase := r.Header.Get(HeaderCustomizeHost)
	if originBase == "" {
		originBase = defaultOrigin
	}
	if originBase == "" {
		return nil, ErrNoOrigin
	}

	originURL, err := url.Parse(originBase)
	if err != nil {
		return nil, &ErrInvalidOrigin{Origin: originBase, Cause: err}
	}
	if originURL.Scheme == "" || originURL.Host == "" {
		return nil, &ErrInvalidOrigin{Origin: originBase}
	}

	target := *r.URL
	target.Scheme = originURL.Scheme
	target.Host = originURL.Host
	target.User = nil

	switch {
	case r.URL.Path == "/" || r.URL.Path == "":
		target.Path = originURL.Path
		target.RawPath = originURL.RawPath
		if target.Path == "" {
			target.Path = "/"
		}
	case originURL.Path != "" && originURL.Path != "/":
		target.Path = strings.TrimSuffix(originURL.Path, "/") + r.URL.Path
		target.RawPath = ""
		if r.URL.RawPath != "" {
			target.RawPath = strings.TrimSuffix(originURL.EscapedPath(), "/") + r.URL.RawPath
		}
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}

	removeHopHeaders(out.Header)
	for _, name := range controlHeaders {
		out.Header.Del(name)
	}
	if wantsRewrite(r.Method, r.Header.Get(HeaderEnabled)) {
		out.Header.Del("Accept-Encoding")
	}
	return out, nil
}

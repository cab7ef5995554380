package server

import (
	"io"
	"net/http"

	"github.com/jonathan/generative-proxy/internal/fetch"
	"github.com/jonathan/generative-proxy/internal/store"
	"github.com/jonathan/generative-proxy/internal/types"
)

// handleProxy forwards the request to the origin and, when the gate allows it, rewrites the
// marked sections of the returned page.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upstreamReq, err := BuildUpstreamRequest(r, s.cfg.OriginBaseURL)
	if err != nil {
		s.upstreamFailure(w, r, err)
		return
	}
	if id := requestID(ctx); id != "" {
		upstreamReq.Header.Set("X-Request-ID", id)
	}

	resp, err := s.origin.Do(upstreamReq)
	if err != nil {
		s.upstreamFailure(w, r, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if !ShouldRewrite(r.Method, r.Header.Get(HeaderEnabled), resp.Header.Get("Content-Type")) {
		s.passThrough(w, resp)
		return
	}

	body, err := fetch.ReadBody(resp)
	if err != nil {
		s.upstreamFailure(w, r, err)
		return
	}

	snap := s.snapshot(r)
	personality, found := snap.Select(r.Header.Get(HeaderPersonality))
	if !found && r.Header.Get(HeaderPersonality) != "" {
		s.logger.Debug("unknown personality, using first",
			"requested", r.Header.Get(HeaderPersonality),
			"personality", personality.ID)
	}

	result, err := s.pipeline.RewriteDocument(ctx, body, snap.MainPrompt, personality)
	if err != nil {
		s.logger.Error("rewrite failed, serving original page", "path", r.URL.Path, "error", err)
		result.HTML = body
		result.Changed = false
		result.Errors = append(result.Errors, err.Error())
	}

	copyResponseHeaders(w.Header(), resp.Header)
	AssembleHeaders(w.Header(), Assembly{
		Customized:    result.Changed,
		Errors:        result.Errors,
		PersonalityID: personality.ID,
		Winner:        result.Winner,
	})
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, result.HTML); err != nil {
		s.logger.Warn("failed to write response", "path", r.URL.Path, "error", err)
	}

	s.metrics.ObserveRequest(result.Changed)
	if result.Containers > 0 {
		attrs := []any{
			"path", r.URL.Path,
			"containers", result.Containers,
			"fragments", result.Fragments,
			"customized", result.Changed,
			"personality", personality.ID,
			"request_id", requestID(ctx),
		}
		if result.Winner != nil {
			attrs = append(attrs, "provider", result.Winner.Provider)
		}
		s.logger.Info("page processed", attrs...)
	}
}

// passThrough relays the origin response untouched apart from the customization marker.
func (s *Server) passThrough(w http.ResponseWriter, resp *http.Response) {
	copyResponseHeaders(w.Header(), resp.Header)
	markPassThrough(w.Header())
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("failed to relay response body", "url", resp.Request.URL.String(), "error", err)
	}
	s.metrics.ObserveRequest(false)
}

// snapshot reads the configuration for one request. Store failures fall back to defaults.
func (s *Server) snapshot(r *http.Request) types.ConfigSnapshot {
	snap, err := s.settings.Snapshot(r.Context())
	if err != nil {
		s.logger.Warn("configuration store unavailable, using defaults", "error", err, "request_id", requestID(r.Context()))
	}
	if snap.MainPrompt == "" {
		snap.MainPrompt = store.DefaultMainPrompt()
	}
	if len(snap.Personalities) == 0 {
		snap.Personalities = store.DefaultPersonalities()
	}
	return snap
}

func (s *Server) upstreamFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		status = http.StatusBadGateway
	}
	s.logger.Error("upstream request failed", "path", r.URL.Path, "status", status, "error", err, "request_id", requestID(r.Context()))
	s.jsonResponse(w, status, map[string]string{
		"error":  "Upstream request failed",
		"detail": err.Error(),
	})
}

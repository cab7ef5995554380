package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/generative-proxy/internal/schemas"
	"github.com/jonathan/generative-proxy/internal/server/middleware"
	"github.com/jonathan/generative-proxy/internal/types"
)

// adminSubject names who authorized an admin write, or "anonymous" when auth is off.
func adminSubject(r *http.Request) string {
	subject, err := middleware.GetSubject(r)
	if err != nil || subject == "" {
		return "anonymous"
	}
	return subject
}

// readJSONBody reads a JSON object body. ok is false when the body is not a JSON object.
func readJSONBody(w http.ResponseWriter, r *http.Request) (raw []byte, fields map[string]any, ok bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAdminBodyBytes))
	if err != nil {
		return nil, nil, false
	}
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return raw, nil, false
	}
	return raw, fields, true
}

// handleGetConfig returns the main prompt and the personalities.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot(r)
	s.jsonResponse(w, http.StatusOK, snap)
}

func (s *Server) handleListPersonalities(w http.ResponseWriter, r *http.Request) {
	list, err := s.settings.Personalities(r.Context())
	if err != nil {
		s.logger.Warn("failed to read personalities, serving defaults", "error", err)
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"personalities": list})
}

// handleUpdatePrompt replaces the main prompt.
func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req types.UpdatePromptRequest
	raw, _, ok := readJSONBody(w, r)
	if !ok || json.Unmarshal(raw, &req) != nil || req.Validate() != nil {
		s.failure(w, &ErrValidation{Field: "mainPrompt", Message: "mainPrompt is required"})
		return
	}

	prompt, err := s.settings.SetMainPrompt(r.Context(), req.MainPrompt)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.logger.Info("main prompt updated", "length", len(prompt), "subject", adminSubject(r), "request_id", requestID(r.Context()))
	s.jsonResponse(w, http.StatusOK, map[string]string{"mainPrompt": prompt})
}

// handleReplacePersonalities replaces the whole list. Entries are normalized by the store.
func (s *Server) handleReplacePersonalities(w http.ResponseWriter, r *http.Request) {
	raw, fields, ok := readJSONBody(w, r)
	if !ok {
		s.failure(w, &ErrValidation{Field: "personalities", Message: "personalities array is required"})
		return
	}
	if _, isArray := fields["personalities"].([]any); !isArray {
		s.failure(w, &ErrValidation{Field: "personalities", Message: "personalities array is required"})
		return
	}
	if err := schemas.Validate(schemas.Personalities, raw); err != nil {
		s.schemaFailure(w, err)
		return
	}

	var req types.ReplacePersonalitiesRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.failure(w, &ErrValidation{Field: "personalities", Message: "personalities array is required"})
		return
	}

	list, err := s.settings.ReplacePersonalities(r.Context(), req.Personalities)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.logger.Info("personalities replaced", "count", len(list), "subject", adminSubject(r), "request_id", requestID(r.Context()))
	s.jsonResponse(w, http.StatusOK, map[string]any{"personalities": list})
}

// handleUpsertPersonality adds a personality or updates the one with the same id.
func (s *Server) handleUpsertPersonality(w http.ResponseWriter, r *http.Request) {
	required := &ErrValidation{Field: "name", Message: "name and prompt are required"}

	raw, fields, ok := readJSONBody(w, r)
	if !ok {
		s.failure(w, required)
		return
	}
	_, nameOK := fields["name"].(string)
	_, promptOK := fields["prompt"].(string)
	if !nameOK || !promptOK {
		s.failure(w, required)
		return
	}
	if err := schemas.Validate(schemas.Personality, raw); err != nil {
		s.schemaFailure(w, err)
		return
	}

	var req types.UpsertPersonalityRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.failure(w, required)
		return
	}
	if err := req.Validate(); err != nil {
		s.failure(w, &ErrValidation{Field: "name", Message: "name and prompt cannot be empty"})
		return
	}

	list, id, err := s.settings.UpsertPersonality(r.Context(), req.ID, req.Name, req.Prompt)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.logger.Info("personality saved", "id", id, "subject", adminSubject(r), "request_id", requestID(r.Context()))
	s.jsonResponse(w, http.StatusOK, map[string]any{"personalities": list, "id": id})
}

// handleDeletePersonality removes one personality. The last one cannot be removed.
func (s *Server) handleDeletePersonality(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	list, err := s.settings.DeletePersonality(r.Context(), id)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.logger.Info("personality deleted", "id", id, "subject", adminSubject(r), "request_id", requestID(r.Context()))
	s.jsonResponse(w, http.StatusOK, map[string]any{"personalities": list})
}

// schemaFailure reports schema violations as 400 and schema loading problems as 500.
func (s *Server) schemaFailure(w http.ResponseWriter, err error) {
	var loadErr *schemas.SchemaLoadError
	if errors.As(err, &loadErr) {
		s.internalError(w, err)
		return
	}
	s.failure(w, err)
}

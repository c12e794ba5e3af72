package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
	"github.com/go-chi/chi/v5"
)

// workbookParam returns the decoded {workbook} path segment. Workbook
// names come straight from file titles and routinely carry spaces.
func workbookParam(r *http.Request) string {
	raw := chi.URLParam(r, "workbook")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	var req struct {
		Fragments []transcript.Fragment `json:"fragments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	res, err := s.engine.Ingest(workbook, req.Fragments)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workbook":      workbook,
		"merged":        res.Merged,
		"message_count": res.MessageCount,
		"capture_id":    res.CaptureID,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.db.ListConversations()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type convJSON struct {
		Workbook     string `json:"workbook"`
		MessageCount int    `json:"message_count"`
		CreatedAt    string `json:"created_at"`
		UpdatedAt    string `json:"updated_at"`
	}

	out := make([]convJSON, len(convs))
	for i, c := range convs {
		out[i] = convJSON{
			Workbook:     c.Workbook,
			MessageCount: c.MessageCount,
			CreatedAt:    time.UnixMilli(c.CreatedAt).UTC().Format(time.RFC3339),
			UpdatedAt:    time.UnixMilli(c.UpdatedAt).UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":         len(out),
		"conversations": out,
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	conv, err := s.db.GetConversation(workbook)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, `{"error":"no conversation for workbook"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workbook":        conv.Workbook,
		"message_count":   conv.MessageCount,
		"messages":        conv.Messages,
		"capture_enabled": s.engine.CaptureEnabled(workbook),
		"updated_at":      time.UnixMilli(conv.UpdatedAt).UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	ratio := s.engine.DefaultRatio
	if q := r.URL.Query().Get("ratio"); q != "" {
		f, err := strconv.ParseFloat(q, 64)
		if err != nil || f <= 0 || f > 1 {
			http.Error(w, `{"error":"ratio must be in (0, 1]"}`, http.StatusBadRequest)
			return
		}
		ratio = f
	}

	conv, err := s.db.GetConversation(workbook)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, `{"error":"no conversation for workbook"}`, http.StatusNotFound)
		return
	}

	res, err := s.engine.Summary(r.Context(), workbook, ratio)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workbook": res.Workbook,
		"ratio":    ratio,
		"source":   res.Source,
		"messages": res.Messages,
	})
}

func (s *Server) handleSetCapture(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		http.Error(w, `{"error":"enabled (bool) required"}`, http.StatusBadRequest)
		return
	}

	s.engine.SetCapture(workbook, *req.Enabled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workbook":        workbook,
		"capture_enabled": *req.Enabled,
	})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	if err := s.engine.Forget(workbook); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"workbook": workbook,
		"status":   "forgotten",
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"q parameter required"}`, http.StatusBadRequest)
		return
	}

	convs, err := s.db.SearchConversations(query)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type hitJSON struct {
		Workbook     string `json:"workbook"`
		MessageCount int    `json:"message_count"`
		UpdatedAt    string `json:"updated_at"`
	}

	out := make([]hitJSON, len(convs))
	for i, c := range convs {
		out[i] = hitJSON{
			Workbook:     c.Workbook,
			MessageCount: c.MessageCount,
			UpdatedAt:    time.UnixMilli(c.UpdatedAt).UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":   query,
		"count":   len(out),
		"results": out,
	})
}

func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	workbook := workbookParam(r)

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	caps, err := s.db.RecentCaptures(workbook, limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type captureJSON struct {
		ID            string `json:"id"`
		Digest        string `json:"digest"`
		FragmentCount int    `json:"fragment_count"`
		MessageCount  int    `json:"message_count"`
		Merged        bool   `json:"merged"`
		CreatedAt     string `json:"created_at"`
	}

	out := make([]captureJSON, len(caps))
	for i, c := range caps {
		out[i] = captureJSON{
			ID:            c.ID,
			Digest:        c.Digest,
			FragmentCount: c.FragmentCount,
			MessageCount:  c.MessageCount,
			Merged:        c.Merged,
			CreatedAt:     time.UnixMilli(c.CreatedAt).UTC().Format(time.RFC3339),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"workbook": workbook,
		"count":    len(out),
		"captures": out,
	})
}

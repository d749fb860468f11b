package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/onnwee/hardlyknowher/telemetry"
)

// maxPreviewBody bounds POST /preview bodies.
const maxPreviewBody = 16 << 10

type previewRequest struct {
	Text string `json:"text"`
}

type previewResponse struct {
	Words   []string `json:"words"`
	Replies []string `json:"replies"`
}

// HandlePreview reports which words of a text the bot would answer. It never
// records a cooldown. GET reads ?text=, POST reads {"text": "..."}.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var text string
	switch r.Method {
	case http.MethodGet:
		text = r.URL.Query().Get("text")
	case http.MethodPost:
		var req previewRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPreviewBody))
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		text = req.Text
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if strings.TrimSpace(text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	resp := previewResponse{Words: []string{}, Replies: []string{}}
	for _, j := range h.previewer.Preview(text) {
		resp.Words = append(resp.Words, j.Word)
		resp.Replies = append(resp.Replies, j.Reply)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStats returns servers, members, active cooldowns and jokes told.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.stats.Stats(r.Context()))
}

// HandleTopWords returns the most joked-about words from the joke log.
func (h *Handlers) HandleTopWords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		http.Error(w, "joke log disabled", http.StatusNotFound)
		return
	}
	limit := parseIntQuery(r, "limit", 10)
	words, err := h.store.TopWords(r.Context(), limit)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("top words query failed", slog.Any("err", err), slog.String("component", "http"))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": words})
}

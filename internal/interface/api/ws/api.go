package ws

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"makeChannel/internal/domain"
	"makeChannel/internal/usecase/commands"
)

const maxAuditLimit = 500

type Config struct {
	Addr     string
	Audit    domain.AuditRepository
	Commands []commands.CommandDescriptor
}

func (c Config) addr() string {
	if c.Addr == "" {
		return ":8080"
	}
	return c.Addr
}

type apiHandlers struct {
	audit    domain.AuditRepository
	commands []commands.CommandDescriptor
}

func newAPIHandlers(cfg Config) *apiHandlers {
	return &apiHandlers{audit: cfg.Audit, commands: cfg.Commands}
}

func (a *apiHandlers) register(mux *http.ServeMux) {
	if a == nil || mux == nil {
		return
	}

	mux.HandleFunc("/api/health", a.handleHealth)
	mux.HandleFunc("/api/commands", a.handleCommands)
	if a.audit != nil {
		mux.HandleFunc("/api/audit", a.handleAudit)
	}
}

func (a *apiHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiHandlers) handleCommands(w http.ResponseWriter, r *http.Request) {
	out := a.commands
	if out == nil {
		out = []commands.CommandDescriptor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": out})
}

type auditEntryDTO struct {
	ID        int64             `json:"id"`
	Kind      string            `json:"kind"`
	GuildID   string            `json:"guild_id,omitempty"`
	ChannelID string            `json:"channel_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
}

type auditResponse struct {
	Entries []auditEntryDTO `json:"entries"`
}

func (a *apiHandlers) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := a.audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "audit unavailable")
		return
	}

	resp := auditResponse{Entries: make([]auditEntryDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, auditEntryDTO{
			ID:        e.ID,
			Kind:      string(e.Kind),
			GuildID:   e.GuildID,
			ChannelID: e.ChannelID,
			UserID:    e.UserID,
			Detail:    e.Detail,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

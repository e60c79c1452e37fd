package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/EffortlessMetrics/runbookd/internal/core"
)

// HookRequest is the JSON body POSTed by the hook forwarder for every agent
// lifecycle hook. Hook and matcher are free-form strings: an unrecognized
// pair is accepted and simply surfaces as a notice, per the rule that no
// hook delivery may ever fail with a 5xx.
type HookRequest struct {
	Hook       string          `json:"hook"`
	Matcher    string          `json:"matcher,omitempty"`
	SessionID  string          `json:"session_id"`
	SessionTag string          `json:"session_tag,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// HookHandler returns the http.Handler for the /hook endpoint.
func (s *Server) HookHandler() http.Handler {
	return http.HandlerFunc(s.handleHook)
}

func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req HookRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed hook body: "+err.Error())
		return
	}
	req.Hook = strings.TrimSpace(req.Hook)
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.Hook == "" {
		writeJSONError(w, http.StatusBadRequest, "hook is required")
		return
	}
	if req.SessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ev := core.HookEvent(time.Now(), core.HookName(req.Hook), req.Matcher, req.SessionID, req.SessionTag, req.Payload)
	s.Step(ev)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct{}{})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

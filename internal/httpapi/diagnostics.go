package httpapi

import (
	"net/http"
	"strings"
	"time"
)

// Keys whose values are stripped from diagnostics output for privacy.
var redactKeys = map[string]struct{}{
	"latitude":  {},
	"longitude": {},
	"location":  {},
	"address":   {},
	"email":     {},
	"phone":     {},
	"nickname":  {},
	"userid":    {},
	"user_id":   {},
}

const redactedPlaceholder = "**REDACTED**"

// redact walks maps and lists, replacing values under sensitive keys.
// The input is not modified.
func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, sensitive := redactKeys[strings.ToLower(k)]; sensitive {
				out[k] = redactedPlaceholder
				continue
			}
			out[k] = redact(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = redact(val)
		}
		return out
	default:
		return v
	}
}

type diagnosticsResponse struct {
	Device struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	} `json:"device"`
	Webhook struct {
		URL string `json:"url"`
	} `json:"webhook"`
	Snapshot struct {
		HasData bool           `json:"has_data"`
		Data    map[string]any `json:"data,omitempty"`
	} `json:"snapshot"`
	Errors int `json:"error_count"`
}

func (s *Server) handleDeviceDiagnostics(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}

	var resp diagnosticsResponse
	resp.Device.ID = d.ID.String()
	resp.Device.Name = d.Name
	resp.Device.CreatedAt = d.CreatedAt.UTC().Format(time.RFC3339)
	resp.Webhook.URL = s.webhookURL(d)

	payload, hasData := s.snapshots.Get(r.Context(), d.ID.String())
	resp.Snapshot.HasData = hasData
	if hasData {
		if m, isMap := redact(map[string]any(payload)).(map[string]any); isMap {
			resp.Snapshot.Data = m
		}
	}
	resp.Errors = len(s.errors.Entries(d.ID.String()))

	writeJSON(w, http.StatusOK, resp)
}

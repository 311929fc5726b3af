package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"zepp-bridge/internal/entity"
	"zepp-bridge/internal/errlog"
	"zepp-bridge/internal/observability"
	"zepp-bridge/internal/realtime"
	"zepp-bridge/internal/store"
	"zepp-bridge/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"gorm.io/datatypes"
)

// Payloads from the watch app are small; anything larger is garbage.
const maxWebhookBody = 1 << 20

func (s *Server) deviceFromWebhookID(w http.ResponseWriter, r *http.Request) (*store.Device, bool) {
	webhookID := strings.TrimSpace(chi.URLParam(r, "webhook_id"))
	if webhookID == "" {
		writeError(w, http.StatusNotFound, "unknown webhook")
		return nil, false
	}
	d, err := s.repo.GetDeviceByWebhookID(r.Context(), webhookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown webhook")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to resolve webhook")
		}
		return nil, false
	}
	return d, true
}

func (s *Server) deviceFromLegacyName(w http.ResponseWriter, r *http.Request) (*store.Device, bool) {
	name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "device_name")))
	if name == "" {
		writeError(w, http.StatusNotFound, "unknown device")
		return nil, false
	}
	d, err := s.repo.GetDeviceByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown device")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to resolve device")
		}
		return nil, false
	}
	return d, true
}

func (s *Server) handleWebhookPost(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromWebhookID(w, r)
	if !ok {
		return
	}
	s.ingest(w, r, d)
}

func (s *Server) handleLegacyPost(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromLegacyName(w, r)
	if !ok {
		return
	}
	s.ingest(w, r, d)
}

// ingest runs the full pipeline for one delivery: rate limit, decode,
// snapshot, project, persist, republish. The limiter runs before the
// body is read so rejected requests cost nothing.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, d *store.Device) {
	ctx := r.Context()
	deviceID := d.ID.String()

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, deviceID)
		if err != nil {
			// Limiter backend down: accept rather than drop telemetry.
			slog.Warn("rate limiter unavailable", "device", d.Name, "err", err)
		} else if !allowed {
			observability.WebhookCounter.WithLabelValues(d.Name, "rate_limited").Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		observability.WebhookCounter.WithLabelValues(d.Name, "invalid").Inc()
		s.errors.Record(deviceID, "failed to read request body: "+err.Error())
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	payload, err := telemetry.Decode(body)
	if err != nil {
		observability.WebhookCounter.WithLabelValues(d.Name, "invalid").Inc()
		s.errors.Record(deviceID, "invalid payload: "+err.Error())
		slog.Error("invalid webhook payload", "device", d.Name, "err", err)
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	s.snapshots.Set(ctx, deviceID, payload)

	now := s.now()
	states := entity.Project(payload, now)

	if s.history {
		point := &store.TelemetryPoint{
			DeviceID: d.ID,
			TS:       now,
			Payload:  datatypes.JSON(body),
		}
		if err := s.repo.InsertTelemetryPoint(ctx, point); err != nil {
			slog.Warn("failed to persist telemetry point", "device", d.Name, "err", err)
		}
	}

	if s.publisher != nil {
		s.publisher.PublishState(d, states)
		s.publisher.PublishAvailability(d, true)
	}
	s.emit(realtime.EventDeviceUpdated, d.Name, d.ID)

	observability.WebhookCounter.WithLabelValues(d.Name, "ok").Inc()
	slog.Debug("webhook accepted", "device", d.Name, "entities", len(states))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dashboardData struct {
	DeviceName  string
	WebhookURL  string
	LogURL      string
	HasSnapshot bool
	EntityCount int
	ErrorCount  int
	States      []entity.State
}

func (s *Server) handleWebhookGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromWebhookID(w, r)
	if !ok {
		return
	}
	s.renderDashboard(w, r, d)
}

func (s *Server) handleLegacyGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromLegacyName(w, r)
	if !ok {
		return
	}
	s.renderDashboard(w, r, d)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, d *store.Device) {
	payload, hasSnapshot := s.snapshots.Get(r.Context(), d.ID.String())
	states := entity.Project(payload, s.now())

	data := dashboardData{
		DeviceName:  d.Name,
		WebhookURL:  s.webhookURL(d),
		LogURL:      s.webhookURL(d) + "/log",
		HasSnapshot: hasSnapshot,
		EntityCount: len(states),
		ErrorCount:  len(s.errors.Entries(d.ID.String())),
		States:      states,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		slog.Error("render dashboard", "device", d.Name, "err", err)
	}
}

type errorLogData struct {
	DeviceName string
	Entries    []errlog.Entry
}

func (s *Server) handleWebhookLog(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromWebhookID(w, r)
	if !ok {
		return
	}
	s.renderErrorLog(w, d)
}

func (s *Server) handleLegacyLog(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromLegacyName(w, r)
	if !ok {
		return
	}
	s.renderErrorLog(w, d)
}

func (s *Server) renderErrorLog(w http.ResponseWriter, d *store.Device) {
	data := errorLogData{
		DeviceName: d.Name,
		Entries:    s.errors.Entries(d.ID.String()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := errorLogTmpl.Execute(w, data); err != nil {
		slog.Error("render error log", "device", d.Name, "err", err)
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zepp-bridge/internal/entity"
	"zepp-bridge/internal/errlog"
	"zepp-bridge/internal/publish"
	"zepp-bridge/internal/ratelimit"
	"zepp-bridge/internal/realtime"
	"zepp-bridge/internal/store"
	"zepp-bridge/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Repository is the slice of store.Repo the HTTP layer needs. Tests
// substitute an in-memory fake.
type Repository interface {
	CreateDevice(ctx context.Context, d *store.Device) error
	ListDevices(ctx context.Context) ([]store.Device, error)
	GetDevice(ctx context.Context, id uuid.UUID) (*store.Device, error)
	GetDeviceByWebhookID(ctx context.Context, webhookID string) (*store.Device, error)
	GetDeviceByName(ctx context.Context, name string) (*store.Device, error)
	DeleteDevice(ctx context.Context, id uuid.UUID) error
	InsertTelemetryPoint(ctx context.Context, p *store.TelemetryPoint) error
	ListTelemetryPoints(ctx context.Context, deviceID uuid.UUID, since time.Time, limit int) ([]store.TelemetryPoint, error)
}

type Server struct {
	repo      Repository
	snapshots *telemetry.Snapshots
	errors    *errlog.Log
	limiter   ratelimit.Limiter
	publisher *publish.Publisher
	hub       *realtime.Hub

	baseURL string
	history bool
	now     func() time.Time
}

func NewServer(repo Repository, snapshots *telemetry.Snapshots, errors *errlog.Log, limiter ratelimit.Limiter, publisher *publish.Publisher, hub *realtime.Hub, baseURL string, history bool) *Server {
	return &Server{
		repo:      repo,
		snapshots: snapshots,
		errors:    errors,
		limiter:   limiter,
		publisher: publisher,
		hub:       hub,
		baseURL:   strings.TrimRight(baseURL, "/"),
		history:   history,
		now:       time.Now,
	}
}

func (s *Server) Register(mux *http.ServeMux) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.hub != nil {
		r.Get("/ws/zepp", s.hub.ServeHTTP)
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/webhook/{webhook_id}", func(r chi.Router) {
		r.Get("/", s.handleWebhookGet)
		r.Post("/", s.handleWebhookPost)
		r.Get("/log", s.handleWebhookLog)
	})

	// Path kept for installs that predate the HA-style webhook route.
	r.Route("/api/zepp2hass/{device_name}", func(r chi.Router) {
		r.Get("/", s.handleLegacyGet)
		r.Post("/", s.handleLegacyPost)
		r.Get("/log", s.handleLegacyLog)
	})

	r.Route("/api/zepp/devices", func(r chi.Router) {
		r.Get("/", s.handleDevicesList)
		r.Post("/", s.handleDevicesCreate)
		r.Get("/{device_id}", s.handleDevicesGet)
		r.Delete("/{device_id}", s.handleDevicesDelete)
		r.Get("/{device_id}/entities", s.handleDeviceEntities)
		r.Get("/{device_id}/errors", s.handleDeviceErrors)
		r.Get("/{device_id}/history", s.handleDeviceHistory)
		r.Get("/{device_id}/diagnostics", s.handleDeviceDiagnostics)
	})

	mux.Handle("/", r)
}

func (s *Server) emit(eventType, deviceName string, id uuid.UUID) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(realtime.Event{Type: eventType, Device: deviceName, ID: id.String()})
}

func (s *Server) webhookURL(d *store.Device) string {
	return s.baseURL + "/api/webhook/" + d.WebhookID
}

type jsonErr struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, jsonErr{Error: msg, Code: status})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, errors.New("missing id")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid id")
	}
	return id, nil
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deviceResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	WebhookURL string         `json:"webhook_url"`
	Meta       map[string]any `json:"meta,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (s *Server) deviceResponse(d *store.Device) deviceResponse {
	resp := deviceResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		WebhookURL: s.webhookURL(d),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if len(d.Meta) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(d.Meta, &meta); err == nil {
			resp.Meta = meta
		}
	}
	return resp
}

func (s *Server) handleDevicesList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.repo.ListDevices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load devices")
		return
	}
	out := make([]deviceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, s.deviceResponse(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type deviceCreateRequest struct {
	Name string         `json:"name"`
	Meta map[string]any `json:"meta,omitempty"`
}

func (s *Server) handleDevicesCreate(w http.ResponseWriter, r *http.Request) {
	var req deviceCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	d := &store.Device{Name: req.Name}
	if req.Meta != nil {
		buf, err := json.Marshal(req.Meta)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid meta")
			return
		}
		d.Meta = datatypes.JSON(buf)
	}
	if err := s.repo.CreateDevice(r.Context(), d); err != nil {
		writeError(w, http.StatusConflict, "failed to create device")
		return
	}

	if s.publisher != nil {
		s.publisher.PublishDiscovery(d)
		s.publisher.PublishAvailability(d, false)
	}
	s.emit(realtime.EventDeviceCreated, d.Name, d.ID)
	writeJSON(w, http.StatusCreated, s.deviceResponse(d))
}

func (s *Server) handleDevicesGet(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deviceResponse(d))
}

func (s *Server) handleDevicesDelete(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteDevice(r.Context(), d.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete device")
		return
	}

	if s.publisher != nil {
		s.publisher.PublishAvailability(d, false)
		s.publisher.RemoveDiscovery(d)
	}
	s.snapshots.Drop(r.Context(), d.ID.String())
	s.errors.Drop(d.ID.String())
	s.emit(realtime.EventDeviceDeleted, d.Name, d.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deviceFromPath(w http.ResponseWriter, r *http.Request) (*store.Device, bool) {
	id, err := parseUUIDParam(r, "device_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	d, err := s.repo.GetDevice(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "device not found")
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load device")
		}
		return nil, false
	}
	return d, true
}

func (s *Server) handleDeviceEntities(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	payload, _ := s.snapshots.Get(r.Context(), d.ID.String())
	states := entity.Project(payload, s.now())
	if states == nil {
		states = []entity.State{}
	}
	writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleDeviceErrors(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	entries := s.errors.Entries(d.ID.String())
	if entries == nil {
		entries = []errlog.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deviceFromPath(w, r)
	if !ok {
		return
	}
	if !s.history {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, want RFC3339")
			return
		}
		since = t
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	points, err := s.repo.ListTelemetryPoints(r.Context(), d.ID, since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if points == nil {
		points = []store.TelemetryPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

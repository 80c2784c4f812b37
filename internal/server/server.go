// Package server exposes health, metrics and manual session control over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	orchestration "github.com/deltamod3/aida-voice-agent/core"
	"github.com/deltamod3/aida-voice-agent/core/transcript"
	"github.com/deltamod3/aida-voice-agent/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const scopeName = "github.com/deltamod3/aida-voice-agent/internal/server"

var logger = otelslog.NewLogger(scopeName)

// Controller is the part of the orchestrator the server drives.
type Controller interface {
	Snapshot() orchestration.Update
	Connect() bool
	Disconnect() bool
}

type StreamStatus interface {
	IsConnected() bool
}

type Server struct {
	http *http.Server
}

func New(addr string, controller Controller, stream StreamStatus, recordings *RecordingStore) *Server {
	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      NewHandler(controller, stream, recordings),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(controller Controller, stream StreamStatus, recordings *RecordingStore) http.Handler {
	h := &handlers{controller: controller, stream: stream, recordings: recordings}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/transcript", h.transcript)
	r.Get("/transcript/schema", h.transcriptSchema)
	r.Post("/session/connect", h.connect)
	r.Post("/session/disconnect", h.disconnect)
	r.Get("/recordings/{itemID}", h.recording)

	return otelhttp.NewHandler(r, "aida")
}

func (s *Server) Start() error {
	logger.Info("http server starting", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}

type handlers struct {
	controller Controller
	stream     StreamStatus
	recordings *RecordingStore
}

type HealthResponse struct {
	Status          string `json:"status"`
	StreamConnected bool   `json:"stream_connected"`
	SessionState    string `json:"session_state"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:       "ok",
		SessionState: h.controller.Snapshot().State.String(),
	}
	if h.stream != nil {
		resp.StreamConnected = h.stream.IsConnected()
	}
	if !resp.StreamConnected {
		resp.Status = "degraded"
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) transcript(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.controller.Snapshot())
}

func (h *handlers) transcriptSchema(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, transcript.MessageSchema())
}

type ControlResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
}

func (h *handlers) connect(w http.ResponseWriter, _ *http.Request) {
	h.control(w, h.controller.Connect())
}

func (h *handlers) disconnect(w http.ResponseWriter, _ *http.Request) {
	h.control(w, h.controller.Disconnect())
}

func (h *handlers) control(w http.ResponseWriter, accepted bool) {
	resp := ControlResponse{Accepted: accepted, State: h.controller.Snapshot().State.String()}
	if !accepted {
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	WriteJSON(w, http.StatusAccepted, resp)
}

func (h *handlers) recording(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	wav, ok := h.recordings.Get(itemID)
	if !ok {
		WriteError(w, http.StatusNotFound, "recording not found")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

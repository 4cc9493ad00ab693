package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ciforge/ciforge/internal/auth"
	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/telemetry"
	"github.com/ciforge/ciforge/internal/tool"
)

const maxRequestBodyBytes = 1 << 20

// HTTPServer exposes the same dispatcher over a small JSON API plus health
// and metrics endpoints. API routes are optionally guarded by bearer-token
// auth.
type HTTPServer struct {
	dispatcher *Dispatcher
	srv        *http.Server
	logger     *slog.Logger
}

func NewHTTPServer(addr string, dispatcher *Dispatcher, jwtSecret string, logger *slog.Logger) *HTTPServer {
	s := &HTTPServer{dispatcher: dispatcher, logger: logger}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/tools", s.handleListTools)
	api.HandleFunc("POST /api/v1/tools/{name}", s.handleCallTool)
	api.HandleFunc("GET /api/v1/calls", s.handleListCalls)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("/api/v1/", auth.Middleware(jwtSecret, api))

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *HTTPServer) ListenAndServe() error {
	s.logger.Info("http server starting", "addr", s.srv.Addr)
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	io.WriteString(w, telemetry.RenderPrometheus())
}

func (s *HTTPServer) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.dispatcher.Specs()})
}

func (s *HTTPServer) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var args map[string]any
	if err := decodeJSONBody(w, r, &args); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	env, err := s.dispatcher.Call(r.Context(), tool.Request{Tool: name, Arguments: args})
	if err != nil {
		mapped := core.MapError(err, 400)
		writeErr(w, mapped.HTTPStatus, mapped.Code+": "+mapped.Message)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *HTTPServer) handleListCalls(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher.auditor == nil {
		writeErr(w, http.StatusNotFound, "audit store is not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	records, err := s.dispatcher.auditor.ListRecent(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": records, "count": len(records)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

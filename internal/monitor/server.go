package monitor

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oszuidwest/zwfm-varecorder/internal/eventlog"
	"github.com/oszuidwest/zwfm-varecorder/internal/util"
)

const (
	defaultPageSize   = 50
	readHeaderTimeout = 5 * time.Second
)

// Server exposes the hub and the event log over HTTP.
type Server struct {
	hub     *Hub
	logPath string
}

// NewServer creates a server. An empty logPath disables the /events endpoint.
func NewServer(hub *Hub, logPath string) *Server {
	return &Server{hub: hub, logPath: logPath}
}

// Routes returns an [http.Handler] with all monitor routes.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /events", s.handleEvents)
	return securityHeaders(mux)
}

// Start listens on addr and serves in the background. The returned server
// is used for graceful shutdown.
func (s *Server) Start(addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, util.WrapError("listen on monitor address", err)
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	slog.Info("monitor listening", "addr", ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("monitor server error", "error", err)
		}
	}()

	return srv, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	send := s.hub.subscribe()

	// Writer goroutine - sole writer to the connection
	go func() {
		defer func() {
			if err := conn.Close(); err != nil {
				slog.Debug("WebSocket close error", "error", err)
			}
		}()
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	// The monitor is read-only; reading only detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unsubscribe(send)
			return
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Status())
}

type eventsResponse struct {
	Events  []eventlog.Event `json:"events"`
	HasMore bool             `json:"has_more"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.logPath == "" {
		http.Error(w, "event log not configured", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	n := queryInt(q.Get("limit"), defaultPageSize)
	offset := queryInt(q.Get("offset"), 0)
	filter := eventlog.TypeFilter(q.Get("type"))

	events, hasMore, err := eventlog.ReadLast(s.logPath, n, offset, filter)
	if err != nil {
		slog.Error("failed to read event log", "error", err)
		http.Error(w, "failed to read event log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, HasMore: hasMore})
}

func queryInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

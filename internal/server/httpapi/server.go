// Package httpapi serves the chat bridge websocket endpoint together with
// /metrics and /healthz.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/common"
	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/metrics"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	address   string
	hub       *gateway.Hub
	tokenHash []byte
	logger    logging.Logger
	upgrader  websocket.Upgrader
}

// NewServer creates the HTTP server. An empty bridgeTokenHash accepts any
// bridge, which is only suitable for local development.
func NewServer(addr string, l logging.Logger, hub *gateway.Hub, bridgeTokenHash string) *Server {
	return &Server{
		address:   addr,
		hub:       hub,
		tokenHash: []byte(bridgeTokenHash),
		logger:    l.With("module", "http_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// bridges are server processes, not browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.Handle("/bridge", s.bridgeAuth(http.HandlerFunc(s.handleBridge))).Methods(http.MethodGet)

	return r
}

func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve handles requests on listen until ctx is done. Bridge websockets are
// hijacked connections and outlive the listener; they stay up until
// gateway.Hub.Shutdown so that sessions can still report while finalizing.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) bridgeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.tokenHash) > 0 {
			token := r.Header.Get(common.BridgeTokenHeaderName)
			if token == "" {
				jsonError(w, "missing bridge token", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword(s.tokenHash, []byte(token)); err != nil {
				s.logger.Warn(r.Context(), "bridge token rejected", "remote", r.RemoteAddr)
				jsonError(w, "invalid bridge token", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "bridge upgrade failed", "error", err)
		return
	}
	s.hub.Serve(r.Context(), conn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"bridges": s.hub.Connected(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

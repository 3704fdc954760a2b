// Package http serves the optional status endpoints: Prometheus metrics,
// the current snapshot as JSON and a websocket feed of snapshot changes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"healthd/internal/domain"
	"healthd/internal/logger"
	"healthd/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Server struct {
	addr         string
	store        metrics.SnapshotReader
	metrics      http.Handler
	pushInterval time.Duration
	log          logger.Logger
	srv          *http.Server
}

func NewServer(addr string, store metrics.SnapshotReader, metricsHandler http.Handler, pushInterval time.Duration, log logger.Logger) *Server {
	return &Server{
		addr:         addr,
		store:        store,
		metrics:      metricsHandler,
		pushInterval: pushInterval,
		log:          log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /ws", s.handleWs)

	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http: starting status server", "address", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("http: status server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data := s.store.Get()
	if data.Samples == nil {
		data.Samples = []domain.UtilizationSample{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("http: failed to encode snapshot", "error", err)
	}
}

// handleWs streams every changed snapshot line as a text message, checked
// once per push interval.
func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.log.Debug("ws: client connected", "remote", r.RemoteAddr)

	closed := make(chan struct{})
	go readPump(conn, closed)

	push := time.NewTicker(s.pushInterval)
	defer push.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	follower := metrics.NewFollower(s.store)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			s.log.Debug("ws: client disconnected", "remote", r.RemoteAddr)
			return
		case <-push.C:
			line, ok := follower.Next()
			if !ok {
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
			follower.Delivered(line)
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to process control frames and notice the close.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

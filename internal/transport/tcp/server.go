package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthd/internal/logger"
	"healthd/internal/metrics"
)

const acceptRetryDelay = 50 * time.Millisecond

type Options struct {
	PushInterval time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	addr  string
	store metrics.SnapshotReader
	log   logger.Logger
	opts  Options

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	wg       sync.WaitGroup
}

func NewServer(addr string, store metrics.SnapshotReader, log logger.Logger, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 3 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	return &Server{
		addr:     addr,
		store:    store,
		log:      log,
		opts:     opts,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Start binds the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("tcp: listen on %s: %w", s.addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then closes the
// listener and every open session.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("tcp: server listening", "address", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.shutdown()
				return ctx.Err()
			}

			s.log.Warn("tcp: accept failed", "error", err)
			select {
			case <-time.After(acceptRetryDelay):
			case <-ctx.Done():
			}
			continue
		}

		sess := newSession(s, conn)
		s.register(sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregister(sess)
			sess.serve(ctx)
		}()
	}
}

// Active reports the number of open sessions.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	total := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("tcp: session opened", "id", sess.ID, "remote", sess.conn.RemoteAddr().String(), "total_sessions", total)
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	total := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("tcp: session closed", "id", sess.ID, "total_sessions", total)
}

func (s *Server) shutdown() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.close()
	}

	s.wg.Wait()
	s.log.Info("tcp: server stopped")
}

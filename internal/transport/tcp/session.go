package tcp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthd/internal/logger"
	"healthd/internal/metrics"
)

const (
	maxRequestSize = 1024
	readChunkSize  = 256
)

type Session struct {
	ID     uuid.UUID
	server *Server
	conn   net.Conn
	log    logger.Logger

	closeOnce sync.Once
}

func newSession(server *Server, conn net.Conn) *Session {
	return &Session{
		ID:     uuid.New(),
		server: server,
		conn:   conn,
		log:    server.log,
	}
}

func (s *Session) serve(ctx context.Context) {
	defer s.close()

	line, err := s.readRequest()
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			s.log.Info("tcp: idle session timed out before request", "id", s.ID)
		case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			s.log.Debug("tcp: client left before sending a request", "id", s.ID)
		default:
			s.log.Warn("tcp: failed to read request", "id", s.ID, "error", err)
		}
		return
	}

	mode, err := ParseRequest(line)
	if err != nil {
		s.log.Debug("tcp: ignoring unrecognized request", "id", s.ID, "request", line, "error", err)
		s.idle(ctx)
		return
	}

	s.log.Debug("tcp: request accepted", "id", s.ID, "mode", mode)

	switch mode {
	case ModeOnce:
		s.sendOnce()
	case ModeLoop:
		s.loop(ctx)
	}
}

// readRequest returns the first request. A request ends at a line break, or
// as soon as the bytes received so far form a complete valid request.
// Nothing after the request is ever interpreted.
func (s *Session) readRequest() (string, error) {
	if t := s.server.opts.IdleTimeout; t > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(t))
		defer s.conn.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	for {
		n, err := s.conn.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if i := bytes.IndexAny(buf, "\r\n"); i >= 0 {
			return string(buf[:i]), nil
		}
		if _, perr := ParseRequest(string(buf)); perr == nil {
			return string(buf), nil
		}
		if len(buf) >= maxRequestSize {
			return string(buf), nil
		}

		if err != nil {
			return "", err
		}
	}
}

func (s *Session) sendOnce() {
	line := s.server.store.Get().Line
	if err := s.write(line); err != nil {
		s.log.Debug("tcp: write failed", "id", s.ID, "error", err)
		return
	}

	if tc, ok := s.conn.(interface{ CloseWrite() error }); ok {
		_ = tc.CloseWrite()
	}
}

// loop pushes the snapshot every push interval whenever it changed since
// the last line this session was sent. It ends when the peer closes the
// connection or a write fails.
func (s *Session) loop(ctx context.Context) {
	closed := make(chan struct{})
	go s.watchClosed(closed)

	ticker := time.NewTicker(s.server.opts.PushInterval)
	defer ticker.Stop()

	follower := metrics.NewFollower(s.server.store)

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			s.log.Debug("tcp: loop session closed by client", "id", s.ID)
			return
		case <-ticker.C:
			select {
			case <-closed:
				s.log.Debug("tcp: loop session closed by client", "id", s.ID)
				return
			default:
			}

			line, ok := follower.Next()
			if !ok {
				continue
			}

			if err := s.write(line); err != nil {
				s.log.Debug("tcp: loop write failed", "id", s.ID, "error", err)
				return
			}
			follower.Delivered(line)
		}
	}
}

// watchClosed drains and discards anything the client sends and closes
// done once the connection reports EOF or an error.
func (s *Session) watchClosed(done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, readChunkSize)
	for {
		if _, err := s.conn.Read(buf); err != nil {
			return
		}
	}
}

// idle parks a session that sent an unrecognized request. Without an idle
// timeout it stays open until the server shuts down.
func (s *Session) idle(ctx context.Context) {
	var timeout <-chan time.Time
	if t := s.server.opts.IdleTimeout; t > 0 {
		timer := time.NewTimer(t)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
	case <-timeout:
		s.log.Info("tcp: idle session timed out", "id", s.ID)
	}
}

func (s *Session) write(line string) error {
	if line == "" {
		return nil
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.opts.WriteTimeout))
	_, err := io.WriteString(s.conn, line)
	return err
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/racekit/race-telemetry-go/log"
)

// Server emits newline-delimited JSON frames over TCP. Every client gets
// its own generator so streams stay independent and reproducible.
type Server struct {
	addr string
	opts []Option
	ln   net.Listener
}

func NewServer(addr string, opts ...Option) *Server {
	return &Server{addr: addr, opts: opts}
}

// ListenAndServe blocks until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.ln = ln
	log.Info("telemetry generator listening", log.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		//nolint:errcheck // shutdown path
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting client: %w", err)
		}
		go s.serveClient(ctx, conn)
	}
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) serveClient(ctx context.Context, conn net.Conn) {
	defer conn.Close() //nolint:errcheck // nothing to do about it
	log.Info("client connected", log.String("remote", conn.RemoteAddr().String()))

	gen := NewGenerator(s.opts...)
	interval := time.Duration(float64(time.Second) / gen.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	enc := json.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := gen.Step(1 / gen.tickRate)
			if err := enc.Encode(frame); err != nil {
				log.Info("client disconnected",
					log.String("remote", conn.RemoteAddr().String()),
					log.ErrorField(err))
				return
			}
		}
	}
}

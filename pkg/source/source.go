package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

// Source delivers telemetry frames one at a time. Next blocks until a frame
// is available, the context is canceled, or the source fails.
type Source interface {
	Next(ctx context.Context) (*model.Frame, error)
	Close() error
}

const dialTimeout = 5 * time.Second

// TCPSource reads newline-delimited JSON frames from a TCP endpoint.
type TCPSource struct {
	conn   net.Conn
	frames chan *model.Frame
	errs   chan error
}

// NewTCPSource connects to addr and starts decoding frames.
func NewTCPSource(addr string) (*TCPSource, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to telemetry feed %s: %w", addr, err)
	}
	s := &TCPSource{
		conn:   conn,
		frames: make(chan *model.Frame, 16),
		errs:   make(chan error, 1),
	}
	go s.read()
	return s, nil
}

func (s *TCPSource) read() {
	defer close(s.frames)
	scanner := bufio.NewScanner(s.conn)
	// frames with full opponent data can get large
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var frame model.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			s.fail(fmt.Errorf("%w: %v", telemetry.ErrMalformedFrame, err))
			continue
		}
		s.frames <- &frame
	}
	if err := scanner.Err(); err != nil {
		s.fail(fmt.Errorf("%w: %v", telemetry.ErrSourceDisconnected, err))
	}
}

// fail hands an error to the consumer without ever blocking the reader; a
// closed frames channel already signals disconnect on its own.
func (s *TCPSource) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// Next returns the next decoded frame. Returns ErrMalformedFrame for frames
// that failed to decode and ErrSourceDisconnected when the peer goes away.
func (s *TCPSource) Next(ctx context.Context) (*model.Frame, error) {
	// pending decode errors take precedence over everything else
	select {
	case err := <-s.errs:
		return nil, err
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-s.errs:
		return nil, err
	case frame, ok := <-s.frames:
		if !ok {
			select {
			case err := <-s.errs:
				return nil, err
			default:
			}
			return nil, telemetry.ErrSourceDisconnected
		}
		return frame, nil
	}
}

func (s *TCPSource) Close() error {
	return s.conn.Close()
}

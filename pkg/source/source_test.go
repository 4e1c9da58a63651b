//nolint:thelper,funlen // ok for tests
package source

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racekit/race-telemetry-go/pkg/model"
	"github.com/racekit/race-telemetry-go/pkg/telemetry"
)

// serveLines starts a one-shot TCP server that writes the given lines and
// then closes the connection.
func serveLines(t *testing.T, lines ...string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for _, line := range lines {
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
	}()
	return ln.Addr().String()
}

func frameLine(t *testing.T, sessionTime float64) string {
	t.Helper()
	data, err := json.Marshal(&model.Frame{SessionTime: sessionTime, Speed: 50})
	require.NoError(t, err)
	return string(data)
}

func TestTCPSource_DecodesFrames(t *testing.T) {
	addr := serveLines(t, frameLine(t, 1.0), frameLine(t, 2.0))
	src, err := NewTCPSource(addr)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1.0, first.SessionTime)

	second, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, second.SessionTime)
}

func TestTCPSource_MalformedLineSurfacesAsError(t *testing.T) {
	addr := serveLines(t, "{not json}")
	src, err := NewTCPSource(addr)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, telemetry.ErrMalformedFrame)
}

func TestTCPSource_DisconnectAfterFrames(t *testing.T) {
	addr := serveLines(t, frameLine(t, 1.0))
	src, err := NewTCPSource(addr)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = src.Next(ctx)
	require.NoError(t, err)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, telemetry.ErrSourceDisconnected)
}

func TestTCPSource_ContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			time.Sleep(2 * time.Second) // hold the connection open, send nothing
		}
	}()

	src, err := NewTCPSource(ln.Addr().String())
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTCPSource_ConnectFailure(t *testing.T) {
	_, err := NewTCPSource("127.0.0.1:1") // nothing listens there
	assert.Error(t, err)
}

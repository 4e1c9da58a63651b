package utils

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/racekit/race-telemetry-go/log"
)

const dialRetryInterval = 200 * time.Millisecond

// WaitForTCP polls addr until a TCP connection succeeds or the timeout is
// reached. Used to hold server startup until the telemetry feed is up.
func WaitForTCP(addr string, timeout time.Duration) error {
	timeoutReached := time.Now().Add(timeout)
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.String("timeout", timeout.String()))
	var d net.Dialer
	for time.Now().Before(timeoutReached) {
		conn, err := d.DialContext(context.Background(), "tcp", addr)
		if err == nil {
			conn.Close()

			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.String("duration", time.Since(start).String()))
			return nil
		}
		time.Sleep(dialRetryInterval)
	}
	return fmt.Errorf("%s could not be reached after %v", addr, timeout)
}

package telemetry

import "errors"

var (
	// ErrMalformedFrame marks a frame that failed validation and was dropped.
	ErrMalformedFrame = errors.New("malformed telemetry frame")
	// ErrSourceDisconnected is returned when the feed goes away.
	ErrSourceDisconnected = errors.New("telemetry source disconnected")
	// ErrInsufficientData is returned by queries that need state which has
	// not been observed yet (no frame, no completed lap).
	ErrInsufficientData = errors.New("insufficient telemetry data")
	// ErrInvalidArgument is returned for out-of-range query parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

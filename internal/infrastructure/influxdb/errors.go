package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the mirror is turned
	// off in configuration.
	ErrDisabled = errors.New("influxdb is disabled")

	// ErrConnectionFailed indicates the server could not be reached
	// or reported itself unhealthy.
	ErrConnectionFailed = errors.New("influxdb connection failed")

	// ErrNotConnected indicates an operation on a closed client.
	ErrNotConnected = errors.New("influxdb not connected")
)

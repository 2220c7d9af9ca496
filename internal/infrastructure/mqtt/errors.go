package mqtt

import "errors"

var (
	// ErrConnectionFailed indicates the initial broker connection
	// did not succeed within the timeout.
	ErrConnectionFailed = errors.New("mqtt connection failed")

	// ErrNotConnected indicates an operation on a disconnected client.
	ErrNotConnected = errors.New("mqtt not connected")

	// ErrInvalidTopic indicates an empty or malformed topic.
	ErrInvalidTopic = errors.New("invalid mqtt topic")

	// ErrInvalidQoS indicates a QoS level outside 0..2.
	ErrInvalidQoS = errors.New("invalid mqtt qos level")

	// ErrPublishFailed indicates a publish was not acknowledged.
	ErrPublishFailed = errors.New("mqtt publish failed")

	// ErrSubscribeFailed indicates a subscribe was not acknowledged.
	ErrSubscribeFailed = errors.New("mqtt subscribe failed")

	// ErrUnsubscribeFailed indicates an unsubscribe was not acknowledged.
	ErrUnsubscribeFailed = errors.New("mqtt unsubscribe failed")
)

// Package mqtt wraps paho.mqtt.golang with connection management,
// publish/subscribe helpers, and automatic reconnection.
//
// Subscriptions are tracked and restored after a reconnect. Message
// handlers run in paho's goroutines with panic recovery; a handler
// error is logged and the message is still acknowledged.
//
// The broker is an optional ingestion transport. Sensors publish
// measurement payloads to measurand/sensors/<id>/measurements and the
// bridge feeds them through the same validation pipeline as HTTP
// device ingestion.
package mqtt

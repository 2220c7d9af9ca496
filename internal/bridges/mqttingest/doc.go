// Package mqttingest bridges broker-published sensor readings into the
// measurement pipeline.
//
// Sensors publish JSON payloads to measurand/sensors/<id>/measurements
// with their API key in the body (MQTT has no request headers). Every
// payload passes through the same credential, binding, and range checks
// as HTTP device ingestion; rejected readings are logged and dropped.
package mqttingest

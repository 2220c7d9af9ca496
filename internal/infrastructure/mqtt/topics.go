package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// topicRoot prefixes every topic this service owns.
const topicRoot = "measurand"

// Topics builds the topic strings used by the service. A zero value is
// ready to use; the type exists so topic construction has one home.
type Topics struct{}

// SystemStatus is the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return topicRoot + "/system/status"
}

// SensorMeasurements is the topic a single sensor publishes readings to.
func (Topics) SensorMeasurements(sensorID int64) string {
	return fmt.Sprintf("%s/sensors/%d/measurements", topicRoot, sensorID)
}

// AllSensorMeasurements matches measurement publications from every
// sensor. The single-level wildcard keeps the sensor id extractable.
func (Topics) AllSensorMeasurements() string {
	return topicRoot + "/sensors/+/measurements"
}

// ParseSensorID extracts the sensor id from a concrete measurement
// topic. Returns false when the topic has a different shape.
func (Topics) ParseSensorID(topic string) (int64, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != topicRoot || parts[1] != "sensors" || parts[3] != "measurements" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

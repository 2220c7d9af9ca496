package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteMeasurement mirrors one accepted measurement. sensorID may be
// nil for admin-entered readings; those are tagged source=admin so
// dashboards can separate manual entries from telemetry.
func (c *Client) WriteMeasurement(seriesID int64, sensorID *int64, unit string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{
		"series_id": strconv.FormatInt(seriesID, 10),
		"unit":      unit,
	}
	if sensorID != nil {
		tags["sensor_id"] = strconv.FormatInt(*sensorID, 10)
		tags["source"] = "sensor"
	} else {
		tags["source"] = "admin"
	}

	point := write.NewPoint(
		"measurements",
		tags,
		map[string]interface{}{"value": value},
		timestamp,
	)
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements that do not fit
// the helper above.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}

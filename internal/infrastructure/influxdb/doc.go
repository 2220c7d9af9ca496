// Package influxdb mirrors accepted measurements into InfluxDB for
// long-horizon dashboards. SQLite stays the system of record; the
// mirror is optional and write failures never fail an ingest.
//
// Writes are non-blocking and batched by the underlying client. Async
// write errors surface through SetOnError.
package influxdb

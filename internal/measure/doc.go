// Package measure holds the measurement domain: series definitions,
// sensors with device credentials, and the measurements they produce.
//
// The package owns both ingestion paths. Admin ingestion writes a
// measurement directly against a series. Device ingestion authenticates
// a sensor by API key, checks the payload against the sensor's bound
// series, and pairs the insert with a last-seen stamp in one
// transaction. All validation happens before any write.
package measure

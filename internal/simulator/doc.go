// Package simulator generates synthetic sensor readings and posts them
// to the measurement API over the device ingestion path.
//
// Each configured sensor runs in its own goroutine with a jittered
// interval, producing values from a per-type generator: temperature
// sensors random-walk slowly, energy meters follow a day/night profile,
// and everything else draws uniformly from its range.
package simulator

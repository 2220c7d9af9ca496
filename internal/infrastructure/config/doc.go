// Package config loads and validates Measurand configuration.
//
// Configuration comes from three layers, each overriding the last:
// hardcoded defaults, a YAML file, and MEASURAND_* environment variables.
// Secrets (JWT signing key, broker passwords, InfluxDB token) are expected
// to arrive via the environment rather than the file.
package config

// Package api provides the HTTP REST surface: series, sensor and
// measurement management, user login and profile, device ingestion,
// audit queries, health and metrics.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Access tiers: series and measurement reads are public, /users/me
// requires a token, mutations require an admin token, and the device
// ingestion endpoint authenticates with a sensor API key instead.
package api

// Package auth provides user accounts, password hashing, and access tokens.
//
// Two trust tiers exist for human callers: authenticated users (read own
// profile, change own email/password) and authenticated admins (all
// series/sensor/measurement mutations). Device credentials are a separate
// trust domain handled by the measure package, not here.
package auth

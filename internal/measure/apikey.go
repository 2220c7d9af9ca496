package measure

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyPrefix = "sensor_"

// GenerateAPIKey produces a device credential with 256 bits of entropy.
// The prefix makes leaked keys recognisable in logs and scanners.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return apiKeyPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

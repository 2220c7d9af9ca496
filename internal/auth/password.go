package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Sized for an interactive login check on a
// single-node deployment.
const (
	hashIterations  = 3
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashKeyLength   = 32
	hashSaltLength  = 16
)

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an argon2id hash of the password and encodes it
// as a PHC string ($argon2id$v=19$m=...,t=...,p=...$<salt>$<key>). The
// salt is fresh on every call, so equal passwords hash differently.
func HashPassword(password string) (string, error) {
	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt,
		hashIterations, hashMemoryKiB, hashParallelism, hashKeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether the password matches a stored PHC
// hash. The cost parameters come from the stored string, so hashes
// created under older settings keep verifying after a retune. An
// undecodable hash is an error, not a mismatch.
func VerifyPassword(password, stored string) (bool, error) {
	h, err := parsePHC(stored)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), h.salt,
		h.iterations, h.memoryKiB, h.parallelism, uint32(len(h.key))) //nolint:gosec // G115: key length always fits uint32

	return subtle.ConstantTimeCompare(h.key, candidate) == 1, nil
}

// phcHash is one decoded $argon2id$ string.
type phcHash struct {
	iterations  uint32
	memoryKiB   uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(stored string) (phcHash, error) {
	var h phcHash

	parts := strings.Split(stored, "$")
	if len(parts) != 6 { //nolint:mnd // PHC strings have exactly 6 $-delimited fields
		return h, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return h, fmt.Errorf("%w: unsupported algorithm %q", errMalformedHash, parts[1])
	}

	var version int
	if _, scanErr := fmt.Sscanf(parts[2], "v=%d", &version); scanErr != nil {
		return h, fmt.Errorf("%w: bad version field", errMalformedHash)
	}
	if _, scanErr := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d",
		&h.memoryKiB, &h.iterations, &h.parallelism); scanErr != nil {
		return h, fmt.Errorf("%w: bad parameter field", errMalformedHash)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("%w: undecodable salt", errMalformedHash)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, fmt.Errorf("%w: undecodable key", errMalformedHash)
	}
	return h, nil
}

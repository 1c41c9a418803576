// internal/auth/password.go
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash means a stored PIN hash is not an argon2id hash this build can check.
	ErrInvalidHash = errors.New("invalid pin hash")
	// ErrEmptyPIN is returned when hashing a blank PIN.
	ErrEmptyPIN = errors.New("pin must not be empty")
)

// pinCost holds the Argon2id cost parameters.
type pinCost struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// PINCost is used for every new table PIN. The PIN only guards reissuing an operator
// token, so the cost stays low enough for a tablet to wait on.
var PINCost = pinCost{
	memory:      19 * 1024,
	iterations:  2,
	parallelism: uint8(max(1, runtime.NumCPU()/2)),
	saltLength:  16,
	keyLength:   32,
}

// pinHash is a decoded "$argon2id$v=..$m=..,t=..,p=..$salt$key" string.
type pinHash struct {
	cost pinCost
	salt []byte
	key  []byte
}

func (h pinHash) derive(pin string) []byte {
	return argon2.IDKey([]byte(pin), h.salt, h.cost.iterations, h.cost.memory, h.cost.parallelism, h.cost.keyLength)
}

func (h pinHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.cost.memory, h.cost.iterations, h.cost.parallelism,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

// HashPIN hashes a table PIN with PINCost and a fresh salt. Surrounding whitespace is ignored.
func HashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return "", ErrEmptyPIN
	}
	h := pinHash{cost: PINCost, salt: make([]byte, PINCost.saltLength)}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("pin salt: %w", err)
	}
	h.key = h.derive(pin)
	return h.String(), nil
}

// CheckPIN reports whether pin matches an encoded hash. A malformed hash never matches.
func CheckPIN(pin, encoded string) bool {
	h, err := parsePINHash(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(h.key, h.derive(strings.TrimSpace(pin))) == 1
}

// parsePINHash decodes a stored hash, keeping the cost it was made with so older PINs
// still verify after PINCost changes.
func parsePINHash(encoded string) (pinHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return pinHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return pinHash{}, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}

	var h pinHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.cost.memory, &h.cost.iterations, &h.cost.parallelism); err != nil {
		return pinHash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4]); err != nil {
		return pinHash{}, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if h.key, err = base64.RawStdEncoding.Strict().DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return pinHash{}, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	h.cost.saltLength = uint32(len(h.salt))
	h.cost.keyLength = uint32(len(h.key))
	return h, nil
}

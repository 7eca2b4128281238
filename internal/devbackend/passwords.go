package devbackend

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonAlgorithm   string = "argon2id"
	argonMemoryKB    uint32 = 19 * 1024
	argonTime        uint32 = 2
	argonParallelism uint8  = 1
	argonSaltLength  int    = 16
	argonKeyLength   uint32 = 32

	minPasswordLength int = 8
)

var errInvalidHash = fmt.Errorf("invalid password hash")

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("the password must be at least %d characters long", minPasswordLength)
	}
	return nil
}

// hashPassword returns the PHC encoded argon2id hash of the password.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemoryKB, argonParallelism, argonKeyLength)
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonAlgorithm,
		argon2.Version,
		argonMemoryKB,
		argonTime,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argonAlgorithm {
		return false, errInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, errInvalidHash
	}
	var memory, time uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return false, errInvalidHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return false, errInvalidHash
	}
	computed := argon2.IDKey([]byte(password), salt, time, memory, parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}

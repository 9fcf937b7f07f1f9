package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	passwordHashVersion = "v1"
	iterations          = 180000
	minIterations       = 100000

	MinPasswordLength = 12
)

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// HashPassword returns "v1$<iterations>$<salt>$<digest>", the format stored in
// auth.users and accepted by VerifyPassword.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := deriveDigest(password, salt, iterations)
	return strings.Join([]string{
		passwordHashVersion,
		strconv.Itoa(iterations),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	}, "$"), nil
}

func VerifyPassword(password, encoded string) bool {
	iters, salt, expected, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	actual := deriveDigest(password, salt, iters)
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

func decodeHash(encoded string) (int, []byte, []byte, error) {
	parts := strings.Split(strings.TrimSpace(encoded), "$")
	if len(parts) != 4 || parts[0] != passwordHashVersion {
		return 0, nil, nil, errors.New("unsupported hash format")
	}
	iters, err := strconv.Atoi(parts[1])
	if err != nil || iters < minIterations {
		return 0, nil, nil, errors.New("invalid iteration count")
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, errors.New("invalid salt")
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(digest) != sha256.Size {
		return 0, nil, nil, errors.New("invalid digest")
	}
	return iters, salt, digest, nil
}

func deriveDigest(password string, salt []byte, rounds int) []byte {
	digest := sha256.Sum256(append(append([]byte{}, salt...), password...))
	buf := digest[:]
	for i := 1; i < rounds; i++ {
		next := sha256.Sum256(append(buf, salt...))
		buf = next[:]
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

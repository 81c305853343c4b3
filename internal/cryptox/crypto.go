// Package cryptox hashes and verifies user secrets. Stored secrets are
// self-describing strings so that they can be replicated verbatim between
// directories and verified on either side.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/usersync/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	hashScheme = "argon2id"
	saltSize   = 16
	keySize    = 32
)

// ErrMalformedHash is returned when a stored secret is not in the
// "argon2id$salt$key" form.
var ErrMalformedHash = errors.New("malformed secret hash")

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams are the argon2id costs applied to stored secrets.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4}

// Hasher turns plaintext secrets into argon2id hashes and verifies them.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// DeriveKey runs argon2id over password and salt.
func (h *Hasher) DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, h.params.Time, h.params.Memory, h.params.Threads, keySize)
}

// Hash returns "argon2id$<salt>$<key>" with base64 (raw std) fields.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	pw := []byte(secret)
	defer common.WipeByteArray(pw)

	key := h.DeriveKey(pw, salt)
	enc := base64.RawStdEncoding
	return hashScheme + "$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key), nil
}

// Verify reports whether secret matches the stored hash.
func (h *Hasher) Verify(stored, secret string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false, ErrMalformedHash
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := enc.DecodeString(parts[2])
	if err != nil {
		return false, ErrMalformedHash
	}

	pw := []byte(secret)
	defer common.WipeByteArray(pw)

	got := h.DeriveKey(pw, salt)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

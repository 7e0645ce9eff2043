package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedSealed = errors.New("malformed sealed value")

// sealPrefix versions the storage encoding so the format can evolve without
// rewriting existing rows.
const sealPrefix = "enc:v1"

// kdfSalt is a fixed application salt: the derived key must be stable across
// restarts, so the secret itself is the only variable input.
var kdfSalt = []byte("camwatch-credentials-v1")

// Box seals short secrets (NVR passwords) for at-rest storage using a key
// derived from the operator-configured secret.
type Box struct {
	key []byte
}

// NewBox derives the AES-256 sealing key from secret with Argon2id.
func NewBox(secret string) *Box {
	key := argon2.IDKey([]byte(secret), kdfSalt, 1, 64*1024, 4, 32)
	return &Box{key: key}
}

// Seal encrypts plaintext bound to aad and returns the storage encoding
// "enc:v1:<nonce>:<ciphertext>:<tag>" with base64 fields.
func (b *Box) Seal(plaintext, aad string) (string, error) {
	nonce, ciphertext, tag, err := EncryptGCM(b.key, []byte(plaintext), []byte(aad))
	if err != nil {
		return "", err
	}
	enc := base64.RawStdEncoding
	return fmt.Sprintf("%s:%s:%s:%s", sealPrefix,
		enc.EncodeToString(nonce), enc.EncodeToString(ciphertext), enc.EncodeToString(tag)), nil
}

// Open reverses Seal. Values without the seal prefix are returned verbatim so
// rows written before sealing was introduced keep working.
func (b *Box) Open(stored, aad string) (string, error) {
	if !strings.HasPrefix(stored, sealPrefix+":") {
		return stored, nil
	}

	parts := strings.Split(stored, ":")
	if len(parts) != 5 {
		return "", ErrMalformedSealed
	}

	enc := base64.RawStdEncoding
	nonce, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedSealed
	}
	ciphertext, err := enc.DecodeString(parts[3])
	if err != nil {
		return "", ErrMalformedSealed
	}
	tag, err := enc.DecodeString(parts[4])
	if err != nil {
		return "", ErrMalformedSealed
	}

	plaintext, err := DecryptGCM(b.key, nonce, ciphertext, tag, []byte(aad))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

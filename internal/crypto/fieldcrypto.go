// Package crypto implements the field-level encryption used by the
// enrollment audit trail. Values are stored as "hex(iv):hex(ciphertext)".
//
// Compatibility note: the legacy portal generates and persists a random IV
// per value but keys the AES-CTR stream from the secret digest alone, so the
// stored IV never drives the keystream. This implementation reproduces that
// behavior so existing rows stay readable; changing it breaks every row
// already on disk.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FieldCipher encrypts and decrypts individual string attributes with a
// process-wide secret. It is safe for concurrent use.
type FieldCipher struct {
	key    []byte
	stream [aes.BlockSize]byte
}

// NewFieldCipher derives the cipher key from the configured secret. The
// secret may be any non-empty string; it is digested to a 256-bit key.
func NewFieldCipher(secret string) (*FieldCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("field cipher: empty secret")
	}

	sum := sha256.Sum256([]byte(secret))
	fc := &FieldCipher{key: sum[:]}

	// Keystream offset comes from a second digest of the secret, not from
	// the per-value IV (legacy behavior).
	iv := sha256.Sum256(sum[:])
	copy(fc.stream[:], iv[:aes.BlockSize])

	return fc, nil
}

// Encrypt returns "hex(iv):hex(ciphertext)" for the given plaintext. The IV
// is freshly random per call and stored alongside the ciphertext even though
// the keystream does not depend on it. Empty input encodes to empty output,
// so absent optional attributes produce no stored value.
func (fc *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("field cipher: iv generation: %w", err)
	}

	block, err := aes.NewCipher(fc.key)
	if err != nil {
		return "", fmt.Errorf("field cipher: %w", err)
	}

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, fc.stream[:]).XORKeyStream(ciphertext, []byte(plaintext))

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Anything that does not look like an encrypted
// value (no ':' separator, invalid hex) is returned unchanged: callers such
// as the audit query path feed every stored column through here and must not
// fail on rows written before encryption was introduced.
func (fc *FieldCipher) Decrypt(encoded string) string {
	if encoded == "" {
		return ""
	}

	ivHex, ctHex, found := strings.Cut(encoded, ":")
	if !found {
		return encoded
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return encoded
	}

	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil {
		return encoded
	}

	block, err := aes.NewCipher(fc.key)
	if err != nil {
		return encoded
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(block, fc.stream[:]).XORKeyStream(plaintext, ciphertext)

	return string(plaintext)
}

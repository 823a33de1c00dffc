package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *FieldCipher {
	t.Helper()
	fc, err := NewFieldCipher("test-secret")
	require.NoError(t, err)
	return fc
}

func TestNewFieldCipher_EmptySecret(t *testing.T) {
	_, err := NewFieldCipher("")
	assert.Error(t, err)
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	fc := newTestCipher(t)

	inputs := []string{
		"a",
		"12345678901",
		"Maria da Silva",
		"açaí & caju — édital nº 7",
		strings.Repeat("x", 4096),
	}

	for _, in := range inputs {
		encoded, err := fc.Encrypt(in)
		require.NoError(t, err)
		assert.NotEqual(t, in, encoded)
		assert.Contains(t, encoded, ":")
		assert.Equal(t, in, fc.Decrypt(encoded))
	}
}

func TestFieldCipher_EmptyString(t *testing.T) {
	fc := newTestCipher(t)

	encoded, err := fc.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", encoded)
	assert.Equal(t, "", fc.Decrypt(""))
}

func TestFieldCipher_FreshIVPerCall(t *testing.T) {
	fc := newTestCipher(t)

	a, err := fc.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := fc.Encrypt("same plaintext")
	require.NoError(t, err)

	ivA := strings.SplitN(a, ":", 2)[0]
	ivB := strings.SplitN(b, ":", 2)[0]
	assert.NotEqual(t, ivA, ivB)

	// Legacy weakness: the stored IV does not key the stream, so the
	// ciphertext halves are identical even though the IVs differ.
	assert.Equal(t, strings.SplitN(a, ":", 2)[1], strings.SplitN(b, ":", 2)[1])
}

func TestFieldCipher_MalformedInputReturnedUnchanged(t *testing.T) {
	fc := newTestCipher(t)

	malformed := []string{
		"no separator at all",
		"nothex:deadbeef",
		"zz:zz",
		"deadbeef:nothex",
		"abcd:1234", // iv shorter than a block
		":",
	}

	for _, in := range malformed {
		assert.Equal(t, in, fc.Decrypt(in), "input %q", in)
	}
}

func TestFieldCipher_DifferentSecretsDisagree(t *testing.T) {
	a, err := NewFieldCipher("secret-a")
	require.NoError(t, err)
	b, err := NewFieldCipher("secret-b")
	require.NoError(t, err)

	encoded, err := a.Encrypt("sensitive value")
	require.NoError(t, err)
	assert.NotEqual(t, "sensitive value", b.Decrypt(encoded))
}

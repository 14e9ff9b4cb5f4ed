package security

import (
	"crypto/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper function to generate a valid key
func generateKey(length int) []byte {
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	return key
}

func TestAESService_StringRoundtrip(t *testing.T) {
	nopLogger := zerolog.Nop()

	testCases := []struct {
		name  string
		key   []byte
		notes string
	}{
		{name: "AES-128 (16-byte key)", key: generateKey(16), notes: "statutes signature does not match register"},
		{name: "AES-256 (32-byte key)", key: generateKey(32), notes: "président: nom illisible sur la pièce d'identité"},
		{name: "Empty notes", key: generateKey(32), notes: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, err := NewAESService(tc.key, &nopLogger)
			require.NoError(t, err)

			encoded, err := service.EncryptString(tc.notes)
			require.NoError(t, err)
			assert.NotEqual(t, tc.notes, encoded)

			decoded, err := service.DecryptString(encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.notes, decoded)
		})
	}
}

func TestAESService_Decrypt_Tampered(t *testing.T) {
	nopLogger := zerolog.Nop()
	service, err := NewAESService(generateKey(32), &nopLogger)
	require.NoError(t, err)

	ciphertext, err := service.Encrypt([]byte("do not tamper with this"))
	require.NoError(t, err)

	ciphertext[len(ciphertext)-1] = ^ciphertext[len(ciphertext)-1]

	_, err = service.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESService_DecryptString_BadInput(t *testing.T) {
	nopLogger := zerolog.Nop()
	service, err := NewAESService(generateKey(16), &nopLogger)
	require.NoError(t, err)

	_, err = service.DecryptString("%%% not base64")
	assert.Error(t, err)

	_, err = service.DecryptString("c2hvcnQ=")
	assert.Error(t, err)
}

func TestNewAESService_InvalidKey(t *testing.T) {
	nopLogger := zerolog.Nop()
	_, err := NewAESService([]byte("badkey"), &nopLogger)
	assert.Error(t, err)
}

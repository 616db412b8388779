package crypto

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptKey(t *testing.T) {
	blob, err := EncryptKey("0x"+testKey, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKey, got)
}

func TestDecryptKeyWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testKey, "correct")
	require.NoError(t, err)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestDecryptKeyRejectsTamperedCiphertext(t *testing.T) {
	blob, err := EncryptKey(testKey, "pw")
	require.NoError(t, err)

	var envelope encryptedKeyFile
	require.NoError(t, json.Unmarshal(blob, &envelope))
	ct, err := base64.StdEncoding.DecodeString(envelope.Ciphertext)
	require.NoError(t, err)
	ct[0] ^= 0xff
	envelope.Ciphertext = base64.StdEncoding.EncodeToString(ct)
	tampered, err := json.Marshal(envelope)
	require.NoError(t, err)

	_, err = DecryptKey(tampered, "pw")
	assert.Error(t, err, "GCM authentication catches a flipped ciphertext bit")
}

func TestDecryptKeyUnknownVersion(t *testing.T) {
	blob, err := EncryptKey(testKey, "pw")
	require.NoError(t, err)

	var envelope encryptedKeyFile
	require.NoError(t, json.Unmarshal(blob, &envelope))
	envelope.Version = 99
	bumped, err := json.Marshal(envelope)
	require.NoError(t, err)

	_, err = DecryptKey(bumped, "pw")
	assert.ErrorContains(t, err, "unsupported version")
}

func TestLoadKeyRawTakesPrecedence(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKey, EncryptedKeyPath: "/nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, testKey, got)
}

func TestLoadKeyFromEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testKey, "pw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, testKey, got)
}

func TestLoadKeyNoSource(t *testing.T) {
	_, err := LoadKey(KeyConfig{})
	assert.Error(t, err)
}

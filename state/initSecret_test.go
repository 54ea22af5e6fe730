package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Valid RSA public key for testing (2048-bit)
const testPublicKeyPEM = `
-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAp3bPIMFEIgfqdci/B/eO
jeNf8KtYxWR6kPZlKNQ7Yec2Rzgii0oIdZzFht3/p0XHYZtvtzmtHtdfA7Jbp5Sl
MRxvxBPwhos7T9d/cb2Zskd6Uhq9inkhgBCoTYlyr9lFaOXyLBUnL5oG3/4+OV0a
NRSyPfMhfE8BEj68MrG8+BFuWWtqg0qwvlXKXX3hHfdowOfY/TlHEmz7vzUCy7sT
dqn/IUwPOiP3Feow52EApn67AhaHduqtOzOOsaiwWX3uKNG81+rKQvjBNJmGtbas
Bdg7oMoUKYuLGRhgafvcI3SjlY4FY9alEI2ncoxbVoNWXC5YpqngvuwOO3WmT2sS
iQIDAQAB
-----END PUBLIC KEY-----
`

// Invalid PEM for testing error cases
const invalidKeyPEM = `-----BEGIN INVALID KEY-----
This is not a valid PEM key
-----END INVALID KEY-----`

func TestInitSecret_Success(t *testing.T) {
	tempDir := t.TempDir()

	publicKeyPath := filepath.Join(tempDir, "public.pem")
	err := os.WriteFile(publicKeyPath, []byte(testPublicKeyPEM), 0644)
	require.NoError(t, err, "Failed to write test public key")

	// Change working directory to temp dir (so InitSecret finds the file)
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	jwtSecret, err := InitSecret()

	require.NoError(t, err, "InitSecret should not return an error")
	require.NotNil(t, jwtSecret, "JwtSecret should not be nil")
	require.NotNil(t, jwtSecret.Public, "Public key should not be nil")

	assert.Equal(t, 2048, jwtSecret.Public.N.BitLen(), "Public key should be 2048-bit")
}

func TestInitSecret_MissingPublicKey(t *testing.T) {
	tempDir := t.TempDir()

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	jwtSecret, err := InitSecret()

	assert.Error(t, err, "InitSecret should return error when public key is missing")
	assert.Nil(t, jwtSecret, "JwtSecret should be nil on error")
}

func TestInitSecret_InvalidPublicKey(t *testing.T) {
	tempDir := t.TempDir()

	publicKeyPath := filepath.Join(tempDir, "public.pem")
	err := os.WriteFile(publicKeyPath, []byte(invalidKeyPEM), 0644)
	require.NoError(t, err)

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(originalDir)

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	jwtSecret, err := InitSecret()

	assert.Error(t, err, "InitSecret should return error for malformed PEM")
	assert.Nil(t, jwtSecret)
}

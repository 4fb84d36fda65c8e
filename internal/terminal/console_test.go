package terminal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("s3cr3t\r\nignored\n"), 0600))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out bytes.Buffer
	secret, err := ReadSecret(f, &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", secret)
	assert.Empty(t, out.String(), "no prompt when input is not a terminal")
}

func TestReadLineWithoutNewline(t *testing.T) {
	secret, err := readLine(strings.NewReader("token"))
	require.NoError(t, err)
	assert.Equal(t, "token", secret)
}

func TestReadLineEmpty(t *testing.T) {
	secret, err := readLine(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, secret)
}

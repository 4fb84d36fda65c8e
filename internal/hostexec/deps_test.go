package hostexec

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(installed ...string) LookPathFunc {
	return func(file string) (string, error) {
		for _, name := range installed {
			if name == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestDependencyChecker(t *testing.T) {
	az := Dependency{Name: "Azure CLI", Command: "az", Description: "resolves image versions", Install: "winget install Microsoft.AzureCLI"}
	wsl := Dependency{Name: "WSL", Command: "wsl.exe", Description: "runs instances"}

	c := NewDependencyChecker(fakeLookPath("wsl.exe"))

	missing := c.Missing(az, wsl)
	require.Len(t, missing, 1)
	assert.Equal(t, "az", missing[0].Command)

	err := c.Ensure(az, wsl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDependency))
	assert.Contains(t, err.Error(), "Azure CLI (az)")
	assert.Contains(t, err.Error(), "winget install Microsoft.AzureCLI")
	assert.NotContains(t, err.Error(), "WSL")

	assert.NoError(t, c.Ensure(wsl))
	assert.NoError(t, c.Ensure())
}

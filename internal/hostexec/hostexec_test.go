package hostexec

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerOutput(t *testing.T) {
	var gotName string
	var gotArgs []string
	r := NewRunner(func(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
		gotName, gotArgs = name, args
		return []byte("ok\n"), nil, 0, nil
	})

	out, err := r.Output(context.Background(), "az", "acr", "list")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
	assert.Equal(t, "az", gotName)
	assert.Equal(t, []string{"acr", "list"}, gotArgs)
}

func TestRunnerNonZeroExit(t *testing.T) {
	r := NewRunner(func(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
		return nil, []byte("warning\nboom\n"), 3, nil
	})

	err := r.Check(context.Background(), "wsl.exe", "--import", "web-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, []string{"wsl.exe", "--import", "web-1"}, cmdErr.Args)
	assert.Contains(t, err.Error(), "exited with status 3: boom")
}

func TestRunnerStartFailure(t *testing.T) {
	r := NewRunner(func(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
		return nil, nil, 1, errors.New("executable file not found")
	})

	err := r.Check(context.Background(), "missing")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCommandFailed))
	assert.Contains(t, err.Error(), "start `missing`")
}

func TestNewLocalExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	run := NewLocal()
	stdout, _, code, err := run(context.Background(), "sh", "-c", "echo hello; exit 42")
	assert.NoError(t, err)
	assert.Equal(t, 42, code)
	assert.Equal(t, "hello\n", string(stdout))
}

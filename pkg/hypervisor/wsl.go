package hypervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/javanstorm/dragon/internal/hostexec"
)

// noDistributions is printed (with a non-zero exit) when nothing is registered.
const noDistributions = "has no installed distributions"

// WSL drives the Windows Subsystem for Linux through wsl.exe.
type WSL struct {
	runner  *hostexec.Runner
	path    string
	version int
}

// NewWSL creates a WSL driver. An empty path uses "wsl.exe".
func NewWSL(runner *hostexec.Runner, path string) *WSL {
	if path == "" {
		path = "wsl.exe"
	}
	return &WSL{runner: runner, path: path, version: 2}
}

func (w *WSL) Info() Info {
	return Info{Name: "wsl", Path: w.path}
}

func (w *WSL) List(ctx context.Context) ([]string, error) {
	out, err := w.runner.Output(ctx, w.path, "--list", "--quiet")
	text := decodeOutput(out)
	if err != nil {
		var cmdErr *hostexec.CommandError
		if errors.As(err, &cmdErr) && strings.Contains(text+cmdErr.Stderr, noDistributions) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list instances: %w", err)
	}

	names := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (w *WSL) Import(ctx context.Context, spec ImportSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	version := spec.Version
	if version == 0 {
		version = w.version
	}

	args := []string{"--import", spec.Name, spec.InstallDir, spec.Archive}
	if version > 0 {
		args = append(args, "--version", strconv.Itoa(version))
	}
	if err := w.runner.Check(ctx, w.path, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrImportFailed, spec.Name, err)
	}
	return nil
}

func (w *WSL) Unregister(ctx context.Context, name string) error {
	if err := w.runner.Check(ctx, w.path, "--unregister", name); err != nil {
		return fmt.Errorf("unregister %s: %w", name, err)
	}
	return nil
}

func (w *WSL) Run(ctx context.Context, name string) error {
	instances, err := w.List(ctx)
	if err != nil {
		return err
	}
	if !Contains(instances, name) {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	}
	if err := w.runner.Attached(ctx, w.path, "-d", name); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}

// decodeOutput converts wsl.exe output to a string. wsl.exe writes UTF-16LE
// unless WSL_UTF8=1 is set, so NUL bytes select the decoder.
func decodeOutput(out []byte) string {
	if bytes.IndexByte(out, 0) < 0 {
		return strings.ReplaceAll(string(out), "\r", "")
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(out)
	if err != nil {
		return strings.ReplaceAll(string(bytes.ReplaceAll(out, []byte{0}, nil)), "\r", "")
	}
	return strings.ReplaceAll(string(decoded), "\r", "")
}

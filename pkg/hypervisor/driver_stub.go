//go:build !windows

package hypervisor

import "github.com/javanstorm/dragon/internal/hostexec"

// NewDriver returns an error on platforms without WSL.
func NewDriver(runner *hostexec.Runner, wslPath string) (Driver, error) {
	return nil, ErrUnsupportedPlatform
}

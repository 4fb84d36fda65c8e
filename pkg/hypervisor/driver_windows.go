//go:build windows

package hypervisor

import "github.com/javanstorm/dragon/internal/hostexec"

// NewDriver returns the WSL driver.
func NewDriver(runner *hostexec.Runner, wslPath string) (Driver, error) {
	return NewWSL(runner, wslPath), nil
}

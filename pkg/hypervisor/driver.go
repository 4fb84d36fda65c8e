// Package hypervisor provides a unified interface over the VM runtime that
// hosts imported environment instances.
package hypervisor

import "context"

// Driver is the VM runtime capability. Instances are addressed by name.
type Driver interface {
	Info() Info

	// List returns the names of every registered instance.
	List(ctx context.Context) ([]string, error)

	// Import registers a new instance from a root filesystem tarball,
	// storing its disk under installDir.
	Import(ctx context.Context, spec ImportSpec) error

	// Unregister removes an instance and its disk.
	Unregister(ctx context.Context, name string) error

	// Run attaches the caller's terminal to a shell in the instance and
	// blocks until it exits.
	Run(ctx context.Context, name string) error
}

// Info contains driver metadata.
type Info struct {
	Name string // "wsl"
	Path string // executable used
}

// Contains reports whether name is among instances.
func Contains(instances []string, name string) bool {
	for _, n := range instances {
		if n == name {
			return true
		}
	}
	return false
}

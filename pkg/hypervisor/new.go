package hypervisor

import (
	"context"
	"runtime"
)

// SupportedPlatform returns true if the current platform has a VM runtime driver.
func SupportedPlatform() bool {
	return runtime.GOOS == "windows"
}

// Unavailable is a Driver whose every operation fails with Err. It stands
// in on platforms without a runtime so flows that never touch instances
// still work.
type Unavailable struct {
	Err error
}

func (u Unavailable) Info() Info { return Info{Name: "unavailable"} }

func (u Unavailable) List(ctx context.Context) ([]string, error) { return nil, u.Err }

func (u Unavailable) Import(ctx context.Context, spec ImportSpec) error { return u.Err }

func (u Unavailable) Unregister(ctx context.Context, name string) error { return u.Err }

func (u Unavailable) Run(ctx context.Context, name string) error { return u.Err }

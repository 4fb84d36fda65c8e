package hypervisor

import (
	"fmt"
	"strings"
)

// ImportSpec holds the parameters of an instance import.
type ImportSpec struct {
	// Name is the instance identity.
	Name string

	// InstallDir is where the runtime keeps the instance disk.
	InstallDir string

	// Archive is the root filesystem tarball.
	Archive string

	// Version selects the runtime generation (WSL 1 or 2). Zero keeps the runtime default.
	Version int
}

// Validate performs basic validation of the spec.
func (s *ImportSpec) Validate() error {
	if s.Name == "" {
		return ErrMissingName
	}
	if strings.ContainsAny(s.Name, "/\\:*?\"<>| ") {
		return fmt.Errorf("%w: %q", ErrInvalidName, s.Name)
	}
	if s.InstallDir == "" {
		return ErrMissingInstall
	}
	if s.Archive == "" {
		return ErrMissingArchive
	}
	return nil
}

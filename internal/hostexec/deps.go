package hostexec

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMissingDependency is returned when a required external tool is not installed.
var ErrMissingDependency = errors.New("required tool not found")

// Dependency is an external tool a flow shells out to.
type Dependency struct {
	Name        string // e.g. "Azure CLI"
	Command     string // executable name or path
	Description string // what dragon uses it for
	Install     string // how to install it
}

// LookPathFunc resolves an executable, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// DependencyChecker verifies that external tools are available.
type DependencyChecker struct {
	lookPath LookPathFunc
}

// NewDependencyChecker creates a checker. A nil lookPath uses exec.LookPath.
func NewDependencyChecker(lookPath LookPathFunc) *DependencyChecker {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &DependencyChecker{lookPath: lookPath}
}

// Missing returns the dependencies that cannot be found.
func (c *DependencyChecker) Missing(deps ...Dependency) []Dependency {
	var missing []Dependency
	for _, dep := range deps {
		if _, err := c.lookPath(dep.Command); err != nil {
			missing = append(missing, dep)
		}
	}
	return missing
}

// Ensure returns ErrMissingDependency describing every missing tool.
func (c *DependencyChecker) Ensure(deps ...Dependency) error {
	missing := c.Missing(deps...)
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	for _, dep := range missing {
		fmt.Fprintf(&b, "\n  %s (%s): %s", dep.Name, dep.Command, dep.Description)
		if dep.Install != "" {
			fmt.Fprintf(&b, "\n    install: %s", dep.Install)
		}
	}
	return fmt.Errorf("%w:%s", ErrMissingDependency, b.String())
}

package reconcile

import (
	"context"
	"fmt"

	"github.com/javanstorm/dragon/internal/imageref"
	"github.com/javanstorm/dragon/internal/vm"
)

// Run attaches to the instance of the named environment at its current tag.
func (o *Orchestrator) Run(ctx context.Context, name string) error {
	if name == "" {
		return stepErr("", StepRun, fmt.Errorf("%w: no name given", ErrEnvironmentNotFound))
	}

	doc, err := o.store.Load()
	if err != nil {
		return err
	}

	env := doc.FindByName(name)
	if env == nil {
		return stepErr(name, StepRun, fmt.Errorf("%w: %q", ErrEnvironmentNotFound, name))
	}

	ref, err := imageref.Parse(env.Image)
	if err != nil {
		return stepErr(name, StepParseImage, err)
	}

	identity := vm.Identity(name, ref.TagOrDefault())
	o.logger.Debug("running instance", "env", name, "identity", identity)
	if err := o.driver.Run(ctx, identity); err != nil {
		return stepErr(name, StepRun, err)
	}
	return nil
}

// InstanceState is what the VM runtime reports for an environment's instance.
type InstanceState string

const (
	StateInstalled InstanceState = "installed"
	StateMissing   InstanceState = "missing"
	StateUnknown   InstanceState = "unknown"
)

// Status describes one environment for listing.
type Status struct {
	Name            string
	Image           string
	ResolvedVersion string
	Identity        string
	InstallPath     string
	State           InstanceState
}

// List reports every environment in store order. When the runtime cannot be
// queried, instance states are StateUnknown.
func (o *Orchestrator) List(ctx context.Context) ([]Status, error) {
	doc, err := o.store.Load()
	if err != nil {
		return nil, err
	}

	instances, listErr := o.driver.List(ctx)
	if listErr != nil {
		o.logger.Debug("cannot list instances", "error", listErr)
	}
	present := make(map[string]bool, len(instances))
	for _, name := range instances {
		present[name] = true
	}

	statuses := make([]Status, 0, len(doc.Environments))
	for _, env := range doc.Environments {
		s := Status{
			Name:            env.Name,
			Image:           env.Image,
			ResolvedVersion: env.ResolvedVersion,
			InstallPath:     env.InstallPath,
			State:           StateUnknown,
		}
		if ref, err := imageref.Parse(env.Image); err == nil {
			s.Identity = vm.Identity(env.Name, ref.TagOrDefault())
			if listErr == nil {
				s.State = StateMissing
				if present[s.Identity] {
					s.State = StateInstalled
				}
			}
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

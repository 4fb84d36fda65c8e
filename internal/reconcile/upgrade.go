package reconcile

import (
	"context"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/imageref"
	"github.com/javanstorm/dragon/internal/vm"
)

// Upgrade moves every selected environment to its resolved version: the
// resolved tag is pulled, provisioned under a new identity and written back
// to the record. Records already at their resolved version with a live
// instance only have their terminal profile re-ensured.
func (o *Orchestrator) Upgrade(ctx context.Context, target string) error {
	return o.mutate(func(doc *config.Document) error {
		for i := range doc.Environments {
			env := &doc.Environments[i]
			if !selected(target, env.Name) {
				continue
			}
			if err := o.upgrade(ctx, doc, env); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *Orchestrator) upgrade(ctx context.Context, doc *config.Document, env *config.Environment) error {
	if env.ResolvedVersion == "" {
		return stepErr(env.Name, StepResolveVersion, ErrNoResolvedVersion)
	}

	o.step(env.Name, StepParseImage)
	current, err := imageref.Parse(env.Image)
	if err != nil {
		return stepErr(env.Name, StepParseImage, err)
	}
	next := current.WithTag(env.ResolvedVersion)
	identity := vm.Identity(env.Name, env.ResolvedVersion)

	converged := false
	if current.Tag == env.ResolvedVersion {
		exists, err := o.provisioner.Exists(ctx, identity)
		if err != nil {
			return stepErr(env.Name, StepProvision, err)
		}
		converged = exists
	}

	if converged {
		o.logger.Info("environment up to date", "env", env.Name, "identity", identity)
	} else {
		o.step(env.Name, StepPull)
		if err := o.pull(ctx, doc, next); err != nil {
			return stepErr(env.Name, StepPull, err)
		}

		o.step(env.Name, StepProvision)
		if err := o.provisioner.Provision(ctx, identity, next.String(), env.InstallPath); err != nil {
			return stepErr(env.Name, StepProvision, err)
		}

		o.step(env.Name, StepPersist)
		env.Image = next.String()
		o.logger.Info("environment upgraded", "env", env.Name, "image", env.Image, "identity", identity)
	}

	o.step(env.Name, StepProfile)
	if err := o.ensureProfile(env); err != nil {
		return stepErr(env.Name, StepProfile, err)
	}
	return nil
}

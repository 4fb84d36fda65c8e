package reconcile

import (
	"context"
	"fmt"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/imageref"
	"github.com/javanstorm/dragon/internal/resolver"
)

// Pull fetches the image of every selected environment. When the record
// has a resolved version that differs from its tag, that tag is pulled too.
// The store is not modified.
func (o *Orchestrator) Pull(ctx context.Context, target string) error {
	doc, err := o.store.Load()
	if err != nil {
		return err
	}

	for i := range doc.Environments {
		env := &doc.Environments[i]
		if !selected(target, env.Name) {
			continue
		}

		o.step(env.Name, StepParseImage)
		ref, err := imageref.Parse(env.Image)
		if err != nil {
			return stepErr(env.Name, StepParseImage, err)
		}
		ref = ref.Normalize()

		o.step(env.Name, StepPull)
		if err := o.pull(ctx, doc, ref); err != nil {
			return stepErr(env.Name, StepPull, err)
		}

		if env.ResolvedVersion != "" && env.ResolvedVersion != ref.Tag && o.resolvers.IsSupported(ref.Host()) {
			if err := o.pull(ctx, doc, ref.WithTag(env.ResolvedVersion)); err != nil {
				return stepErr(env.Name, StepPull, err)
			}
		}
	}
	return nil
}

// Update resolves the newest tag of every selected environment's image and
// records it as the resolved version. Nothing is pulled or provisioned.
func (o *Orchestrator) Update(ctx context.Context, target string) error {
	return o.mutate(func(doc *config.Document) error {
		for i := range doc.Environments {
			env := &doc.Environments[i]
			if !selected(target, env.Name) {
				continue
			}

			o.step(env.Name, StepParseImage)
			ref, err := imageref.Parse(env.Image)
			if err != nil {
				return stepErr(env.Name, StepParseImage, err)
			}

			o.step(env.Name, StepResolveVersion)
			tag, err := o.resolveLatest(ctx, doc, ref)
			if err != nil {
				return stepErr(env.Name, StepResolveVersion, err)
			}

			if env.ResolvedVersion != tag {
				o.logger.Info("resolved new version", "env", env.Name, "previous", env.ResolvedVersion, "version", tag)
			} else {
				o.logger.Info("version unchanged", "env", env.Name, "version", tag)
			}
			env.ResolvedVersion = tag
		}
		return nil
	})
}

// resolveLatest asks the registry's provider for the newest tag of ref.
func (o *Orchestrator) resolveLatest(ctx context.Context, doc *config.Document, ref imageref.Reference) (string, error) {
	host := ref.Host()
	provider, err := o.resolvers.ForHost(host)
	if err != nil {
		return "", err
	}

	cred := doc.FindCredential(host)
	if cred == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingCredential, host)
	}

	return provider.LatestTag(ctx, host, ref.Repository, resolver.Credential{
		Username: cred.Username,
		Password: cred.Password,
		Tenant:   cred.Tenant,
	})
}

package reconcile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/imageref"
	"github.com/javanstorm/dragon/internal/vm"
)

// NewRequest declares a new environment.
type NewRequest struct {
	Name  string
	Image string

	// InstallPath is used as-is when set. Otherwise the store default joined
	// with Name is used.
	InstallPath string

	// SetDefault stores InstallPath as the store-wide default root; the
	// environment is then installed under InstallPath/Name.
	SetDefault bool

	// Registry credential for the image's host, stored unless one exists.
	Username string
	Password string
	Tenant   string
}

// Create declares a new environment, provisions its instance and registers
// its terminal profile. It fails if the name is already in the store.
func (o *Orchestrator) Create(ctx context.Context, req NewRequest) error {
	return o.mutate(func(doc *config.Document) error {
		name := req.Name

		o.step(name, StepValidateName)
		if name == "" {
			return stepErr(name, StepValidateName, fmt.Errorf("environment name is required"))
		}
		if doc.FindByName(name) != nil {
			return stepErr(name, StepValidateName, fmt.Errorf("%w: %q", config.ErrDuplicateName, name))
		}

		o.step(name, StepParseImage)
		parsed, err := imageref.Parse(req.Image)
		if err != nil {
			return stepErr(name, StepParseImage, err)
		}
		ref := parsed.Normalize()

		if req.Username != "" {
			o.step(name, StepCredential)
			host := registryHost(ref)
			added := doc.AddCredential(config.Credential{
				Host:     host,
				Username: req.Username,
				Password: req.Password,
				Tenant:   req.Tenant,
			})
			if !added {
				o.logger.Info("keeping existing registry credential", "host", host)
			}
		}

		o.step(name, StepPull)
		if err := o.pull(ctx, doc, ref); err != nil {
			return stepErr(name, StepPull, err)
		}

		identity := vm.Identity(name, ref.Tag)

		o.step(name, StepInstallPath)
		installPath, err := o.installPath(doc, req)
		if err != nil {
			return stepErr(name, StepInstallPath, err)
		}

		o.step(name, StepProvision)
		if err := o.provisioner.Provision(ctx, identity, ref.String(), installPath); err != nil {
			return stepErr(name, StepProvision, err)
		}

		o.step(name, StepPersist)
		env := config.Environment{
			Name:              name,
			Image:             ref.String(),
			TerminalProfileID: o.newID(),
			InstallPath:       installPath,
		}
		if err := doc.AddEnvironment(env); err != nil {
			return stepErr(name, StepPersist, err)
		}

		o.step(name, StepProfile)
		if err := o.ensureProfile(&env); err != nil {
			return stepErr(name, StepProfile, err)
		}

		o.logger.Info("environment created", "env", name, "identity", identity, "install_path", installPath)
		return nil
	})
}

// installPath decides where a new environment's disk lives.
func (o *Orchestrator) installPath(doc *config.Document, req NewRequest) (string, error) {
	if req.InstallPath != "" {
		if !req.SetDefault {
			return req.InstallPath, nil
		}
		doc.DefaultInstallPath = req.InstallPath
	}
	if doc.DefaultInstallPath == "" {
		return "", ErrNoInstallPath
	}
	return filepath.Join(doc.DefaultInstallPath, req.Name), nil
}

// Package reconcile converges the environment store with the image puller,
// the VM runtime and the terminal profile document.
//
// Every flow walks the store's environments in order and handles one record
// at a time. Mutating flows load the store once and save it once, from a
// single deferred site, so progress made before a failure is kept.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/image"
	"github.com/javanstorm/dragon/internal/imageref"
	"github.com/javanstorm/dragon/internal/resolver"
	"github.com/javanstorm/dragon/pkg/hypervisor"
)

// dockerHubHost is the login host for references without a registry host.
const dockerHubHost = "docker.io"

// Provisioner materializes an image as a VM instance.
type Provisioner interface {
	Provision(ctx context.Context, identity, ref, installPath string) error
	Exists(ctx context.Context, identity string) (bool, error)
}

// ProfileRegistrar upserts a terminal launcher profile keyed by id.
type ProfileRegistrar interface {
	EnsureProfile(id, name, commandLine string) error
}

// Options wires an Orchestrator to its collaborators.
type Options struct {
	Store       *config.Store
	Images      image.Client
	Provisioner Provisioner
	Driver      hypervisor.Driver
	Resolvers   *resolver.Registry

	// Profiles may be nil, in which case profile registration is skipped.
	Profiles ProfileRegistrar

	// LaunchCommand returns the command line a terminal profile runs for an
	// environment. Defaults to "dragon run -w <name>".
	LaunchCommand func(name string) string

	// NewID allocates terminal profile ids. Defaults to uuid.NewString.
	NewID func() string

	Logger *slog.Logger
}

// Orchestrator runs the reconciliation flows.
type Orchestrator struct {
	store         *config.Store
	images        image.Client
	provisioner   Provisioner
	driver        hypervisor.Driver
	resolvers     *resolver.Registry
	profiles      ProfileRegistrar
	launchCommand func(name string) string
	newID         func() string
	logger        *slog.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		store:         opts.Store,
		images:        opts.Images,
		provisioner:   opts.Provisioner,
		driver:        opts.Driver,
		resolvers:     opts.Resolvers,
		profiles:      opts.Profiles,
		launchCommand: opts.LaunchCommand,
		newID:         opts.NewID,
		logger:        opts.Logger,
	}
	if o.launchCommand == nil {
		o.launchCommand = DefaultLaunchCommand
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.resolvers == nil {
		o.resolvers = resolver.NewRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// DefaultLaunchCommand is the terminal command line for name.
func DefaultLaunchCommand(name string) string {
	return "dragon run -w " + name
}

// selected reports whether an environment passes the target filter.
// An empty target selects everything.
func selected(target, name string) bool {
	return target == "" || target == name
}

// mutate loads the store, applies fn and saves the document exactly once,
// even when fn fails part way through.
func (o *Orchestrator) mutate(fn func(doc *config.Document) error) (err error) {
	doc, err := o.store.Load()
	if err != nil {
		return err
	}

	defer func() {
		if saveErr := o.store.Save(doc); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("save store: %w", saveErr))
		}
	}()

	return fn(doc)
}

func (o *Orchestrator) step(env, step string) {
	o.logger.Debug("reconcile step", "env", env, "step", step)
}

// registryHost returns the login host for ref.
func registryHost(ref imageref.Reference) string {
	if host := ref.Host(); host != "" {
		return host
	}
	return dockerHubHost
}

// pull fetches ref, logging in first when the store has a credential for
// its registry.
func (o *Orchestrator) pull(ctx context.Context, doc *config.Document, ref imageref.Reference) error {
	host := registryHost(ref)

	var auth *image.Auth
	if cred := doc.FindCredential(host); cred != nil {
		auth = &image.Auth{ServerAddress: host, Username: cred.Username, Password: cred.Password}
		if err := o.images.Login(ctx, *auth); err != nil {
			return err
		}
	}

	o.logger.Info("pulling image", "image", ref.String())
	return o.images.Pull(ctx, ref.String(), auth)
}

// ensureProfile registers the terminal profile for env, or logs that
// registration is disabled.
func (o *Orchestrator) ensureProfile(env *config.Environment) error {
	if o.profiles == nil {
		o.logger.Info("terminal settings not configured, skipping profile", "env", env.Name)
		return nil
	}
	return o.profiles.EnsureProfile(env.TerminalProfileID, env.Name, o.launchCommand(env.Name))
}

// Package vm materializes environment instances in the VM runtime from
// container images.
package vm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/javanstorm/dragon/internal/image"
	"github.com/javanstorm/dragon/internal/timing"
	"github.com/javanstorm/dragon/pkg/hypervisor"
)

// Identity returns the runtime instance name for an environment at a tag.
func Identity(name, tag string) string {
	return name + "-" + tag
}

// Provisioner exports an image to a tarball and imports it as a VM
// instance, replacing any instance with the same identity.
type Provisioner struct {
	images   image.Client
	driver   hypervisor.Driver
	tempRoot string
	logger   *slog.Logger
}

// NewProvisioner creates a Provisioner that stages exports under tempRoot.
func NewProvisioner(images image.Client, driver hypervisor.Driver, tempRoot string, logger *slog.Logger) *Provisioner {
	if tempRoot == "" {
		tempRoot = filepath.Join(os.TempDir(), "dragon")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{images: images, driver: driver, tempRoot: tempRoot, logger: logger}
}

// Provision materializes ref as instance identity with its disk under
// installPath/identity.
//
// An existing instance with the same identity is unregistered before the
// import. If the import then fails, no instance remains for identity.
func (p *Provisioner) Provision(ctx context.Context, identity, ref, installPath string) error {
	timer := timing.New()
	log := p.logger.With("identity", identity)

	ws, err := newExportWorkspace(p.tempRoot)
	if err != nil {
		return fmt.Errorf("export image: %w", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn("failed to clean up export", "dir", ws.Dir(), "error", err)
		}
	}()

	log.Debug("exporting image", "image", ref, "dir", ws.Dir())
	if err := p.exportImage(ctx, ref, ws.ArchivePath()); err != nil {
		return fmt.Errorf("export image: %w", err)
	}
	timer.Mark("export")

	replaced, err := p.replaceIfExists(ctx, identity)
	if err != nil {
		return fmt.Errorf("replace instance: %w", err)
	}
	timer.Mark("replace")

	dir := filepath.Join(installPath, identity)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}
	timer.Mark("mkdir")

	log.Debug("importing instance", "dir", dir)
	spec := hypervisor.ImportSpec{Name: identity, InstallDir: dir, Archive: ws.ArchivePath()}
	if err := p.driver.Import(ctx, spec); err != nil {
		return fmt.Errorf("import instance: %w", err)
	}
	timer.Mark("import")

	log.Info("instance provisioned", "image", ref, "replaced", replaced, "dir", dir)
	log.Debug("provision timing", "timing", timer)
	return nil
}

// exportImage snapshots ref's filesystem into archive via a throwaway container.
func (p *Provisioner) exportImage(ctx context.Context, ref, archive string) error {
	id, err := p.images.Create(ctx, ref)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.images.Remove(ctx, id); err != nil {
			p.logger.Warn("failed to remove export container", "container", id, "error", err)
		}
	}()

	return p.images.Export(ctx, id, archive)
}

// replaceIfExists unregisters identity when the runtime already has it.
func (p *Provisioner) replaceIfExists(ctx context.Context, identity string) (bool, error) {
	instances, err := p.driver.List(ctx)
	if err != nil {
		return false, err
	}
	if !hypervisor.Contains(instances, identity) {
		return false, nil
	}

	p.logger.Info("unregistering existing instance", "identity", identity)
	if err := p.driver.Unregister(ctx, identity); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether the runtime has an instance called identity.
func (p *Provisioner) Exists(ctx context.Context, identity string) (bool, error) {
	instances, err := p.driver.List(ctx)
	if err != nil {
		return false, err
	}
	return hypervisor.Contains(instances, identity), nil
}

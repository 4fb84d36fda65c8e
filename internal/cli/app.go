package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/javanstorm/dragon/internal/config"
	"github.com/javanstorm/dragon/internal/hostexec"
	"github.com/javanstorm/dragon/internal/image"
	"github.com/javanstorm/dragon/internal/reconcile"
	"github.com/javanstorm/dragon/internal/resolver"
	"github.com/javanstorm/dragon/internal/terminal"
	"github.com/javanstorm/dragon/internal/vm"
	"github.com/javanstorm/dragon/pkg/hypervisor"
)

// app is the set of collaborators one command invocation works with.
type app struct {
	store  *config.Store
	images *image.DockerClient
	orch   *reconcile.Orchestrator
}

// newApp wires the orchestrator from the loaded settings.
func newApp() (*app, error) {
	s := settings
	if s == nil {
		return nil, fmt.Errorf("settings not loaded")
	}

	runner := hostexec.NewRunner(nil)

	driver, err := hypervisor.NewDriver(runner, s.WSLPath)
	if err != nil {
		logger.Debug("VM runtime unavailable", "error", err)
		driver = hypervisor.Unavailable{Err: err}
	}

	images, err := image.NewDockerClient(s.DockerHost)
	if err != nil {
		return nil, err
	}

	store := config.NewStore(s.ConfigPath)
	opts := reconcile.Options{
		Store:         store,
		Images:        images,
		Provisioner:   vm.NewProvisioner(images, driver, s.TempDir, logger),
		Driver:        driver,
		Resolvers:     resolver.NewRegistry(resolver.NewACR(runner, s.AzPath).WithDependencyCheck(hostexec.NewDependencyChecker(nil))),
		LaunchCommand: launchCommand(s.ConfigPath, defaultStorePath()),
		Logger:        logger,
	}
	if s.TerminalSettings != "" {
		opts.Profiles = terminal.NewRegistrar(s.TerminalSettings)
	}

	return &app{store: store, images: images, orch: reconcile.New(opts)}, nil
}

// Close releases the image client.
func (a *app) Close() {
	if err := a.images.Close(); err != nil {
		logger.Debug("failed to close image client", "error", err)
	}
}

// requireImages fails early when the Docker daemon cannot be reached.
func (a *app) requireImages(ctx context.Context) error {
	if err := a.images.Ping(ctx); err != nil {
		return fmt.Errorf("image client unavailable: %w", err)
	}
	return nil
}

// launchCommand returns the terminal profile command line builder. The
// store path is passed along when it is not the default.
func launchCommand(storePath, defaultPath string) func(name string) string {
	return func(name string) string {
		if storePath == "" || storePath == defaultPath {
			return reconcile.DefaultLaunchCommand(name)
		}
		return fmt.Sprintf("dragon --config %s run -w %s", quoteArg(storePath), name)
	}
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull the images of environments",
	Long: `Pull the image of every environment, or only the one named with --name.
When a newer version was resolved by update, that tag is pulled too.
Nothing is provisioned and the store is not changed.`,
	RunE: runPull,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Resolve the newest version of environment images",
	Long: `Ask the registry for the newest tag of every environment's image and
record it as the resolved version. Only Azure Container Registry images are
supported; the registry credential must include a tenant.`,
	RunE: runUpdate,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Move environments to their resolved version",
	Long: `Pull the resolved version of every environment, import it as a new
WSL instance named <name>-<version> and point the environment at it.
Run update first to resolve versions.`,
	RunE: runUpgrade,
}

var (
	pullName    string
	updateName  string
	upgradeName string
)

func init() {
	pullCmd.Flags().StringVarP(&pullName, "name", "w", "", "only this environment")
	updateCmd.Flags().StringVarP(&updateName, "name", "w", "", "only this environment")
	upgradeCmd.Flags().StringVarP(&upgradeName, "name", "w", "", "only this environment")
}

func runPull(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireImages(cmd.Context()); err != nil {
		return err
	}

	return a.orch.Pull(cmd.Context(), pullName)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.orch.Update(cmd.Context(), updateName); err != nil {
		return err
	}
	return printResolved(cmd, a, updateName)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.orch.Upgrade(cmd.Context(), upgradeName)
}

// printResolved lists the resolved versions after an update.
func printResolved(cmd *cobra.Command, a *app, target string) error {
	doc, err := a.store.Load()
	if err != nil {
		return err
	}
	for _, env := range doc.Environments {
		if target != "" && env.Name != target {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (current %s)\n", env.Name, env.ResolvedVersion, env.Image)
	}
	return nil
}

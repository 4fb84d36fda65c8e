package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javanstorm/dragon/internal/reconcile"
	"github.com/javanstorm/dragon/internal/terminal"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Declare a new environment from an image",
	Long: `Pull an image, import it as a WSL instance and register a Windows
Terminal profile for it.

The instance is named <name>-<tag> and lives under the install path. When
--install-path is omitted the store's default install path joined with the
name is used.

Examples:
  dragon new -w web -i nginx:1.25 -p D:\wsl\web
  dragon new -w app -i contoso.azurecr.io/team/app -u <sp-id> --password-stdin --tenant <tenant>`,
	RunE: runNew,
}

var (
	newName          string
	newImage         string
	newInstallPath   string
	newSetDefault    bool
	newUsername      string
	newPassword      string
	newPasswordStdin bool
	newTenant        string
)

func init() {
	newCmd.Flags().StringVarP(&newName, "name", "w", "", "environment name")
	newCmd.Flags().StringVarP(&newImage, "image", "i", "", "image reference [registry/]repository[:tag]")
	newCmd.Flags().StringVarP(&newInstallPath, "install-path", "p", "", "directory for the instance disk")
	newCmd.Flags().BoolVar(&newSetDefault, "set-default", false, "store --install-path as the default root for new environments")
	newCmd.Flags().StringVarP(&newUsername, "username", "u", "", "registry username")
	newCmd.Flags().StringVar(&newPassword, "password", "", "registry password")
	newCmd.Flags().BoolVar(&newPasswordStdin, "password-stdin", false, "read the registry password from stdin")
	newCmd.Flags().StringVar(&newTenant, "tenant", "", "registry tenant, needed by update for private registries")
	_ = newCmd.MarkFlagRequired("name")
	_ = newCmd.MarkFlagRequired("image")
	newCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func runNew(cmd *cobra.Command, args []string) error {
	if newSetDefault && newInstallPath == "" {
		return fmt.Errorf("--set-default needs --install-path")
	}

	password, err := registryPassword(cmd)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireImages(cmd.Context()); err != nil {
		return err
	}

	req := reconcile.NewRequest{
		Name:        newName,
		Image:       newImage,
		InstallPath: newInstallPath,
		SetDefault:  newSetDefault,
		Username:    newUsername,
		Password:    password,
		Tenant:      newTenant,
	}
	if err := a.orch.Create(cmd.Context(), req); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created environment %q\n", newName)
	return nil
}

// registryPassword returns the password from flags, stdin or a prompt.
func registryPassword(cmd *cobra.Command) (string, error) {
	if newUsername == "" || newPassword != "" {
		return newPassword, nil
	}
	if !newPasswordStdin && !terminal.IsTTY() {
		return "", fmt.Errorf("--username needs --password or --password-stdin")
	}
	return terminal.ReadSecret(os.Stdin, cmd.ErrOrStderr(), "Registry password: ")
}

package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Open a shell in an environment",
	Long: `Start the WSL instance of an environment at its current tag and attach
the terminal to it. This is what Windows Terminal profiles invoke.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var runName string

func init() {
	runCmd.Flags().StringVarP(&runName, "name", "w", "", "environment name")
}

func runRun(cmd *cobra.Command, args []string) error {
	name := runName
	if name == "" && len(args) == 1 {
		name = args[0]
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.orch.Run(cmd.Context(), name)
}

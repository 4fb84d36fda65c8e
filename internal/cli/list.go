package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List environments",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	statuses, err := a.orch.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No environments. Create one with: dragon new -w <name> -i <image>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIMAGE\tRESOLVED\tINSTANCE\tSTATE\tINSTALL PATH")
	for _, s := range statuses {
		resolved := s.ResolvedVersion
		if resolved == "" {
			resolved = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.Name, s.Image, resolved, s.Identity, s.State, s.InstallPath)
	}
	return w.Flush()
}

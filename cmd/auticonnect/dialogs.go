package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/auticonnect/internal/flows"
	"github.com/aretw0/auticonnect/internal/presentation/graph"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/spf13/cobra"
)

var dialogsCmd = &cobra.Command{
	Use:   "dialogs",
	Short: "Describe the registered dialogs",
}

var dialogsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the registered dialogs and their steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := flows.Dialogs()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, kind := range slices.Sorted(maps.Keys(set)) {
			d := set[kind]
			fmt.Fprintf(out, "%s (%d steps)\n", kind, len(d.Steps))
			for i, s := range d.Steps {
				fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, s.Name, s.Expect)
			}
		}
		return nil
	},
}

var dialogsGraphCmd = &cobra.Command{
	Use:   "graph <dialog>",
	Short: "Export a dialog as a Mermaid flowchart",
	Long: `Outputs a Mermaid diagram (graph TD) of the dialog steps and transitions.
With --user, the steps already answered by that user's session are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := flows.Dialogs()
		if err != nil {
			return err
		}
		d, ok := set[domain.DialogKind(args[0])]
		if !ok {
			return fmt.Errorf("unknown dialog %q", args[0])
		}

		var overlay *graph.Overlay
		if userID, _ := cmd.Flags().GetString("user"); userID != "" {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.engine.Sessions().Inspect(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to load session %q: %w", userID, err)
			}
			if s.Dialog != d.Kind {
				return fmt.Errorf("session %q is in dialog %s, not %s", userID, s.Dialog, d.Kind)
			}
			overlay = graph.OverlayFor(d, s.Step, slices.Collect(maps.Keys(s.Answers)))
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(d, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dialogsCmd)
	dialogsCmd.AddCommand(dialogsLsCmd)
	dialogsCmd.AddCommand(dialogsGraphCmd)

	dialogsGraphCmd.Flags().String("user", "", "Highlight the progress of this user's session")
}

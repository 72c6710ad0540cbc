package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/zerr"
)

func callerFlags(cmd *cobra.Command, caller *domain.CallerContext) {
	cmd.Flags().StringVar(&caller.ScriptPath, "from", "", "Path of the script issuing the lookup")
	cmd.Flags().StringVar(&caller.ResourceType, "type", "", "Resource type being rendered")
}

func (c *CLI) newResolveCmd() *cobra.Command {
	var caller domain.CallerContext
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Print the content path a script name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, found, err := c.app.ResolveScript(cmd.Context(), caller, args[0])
			if err != nil {
				return err
			}
			if !found {
				return zerr.With(domain.ErrScriptNotFound, "name", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), loc.Path)
			return nil
		},
	}
	callerFlags(cmd, &caller)
	return cmd
}

func (c *CLI) newUseCmd() *cobra.Command {
	var caller domain.CallerContext
	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Compile and load a use-object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, found, err := c.app.UseObject(cmd.Context(), caller, args[0])
			if err != nil {
				return err
			}
			if !found {
				return zerr.With(domain.ErrUseObjectNotFound, "name", args[0])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", unit.Identifier, unit.SourcePath)
			return nil
		},
	}
	callerFlags(cmd, &caller)
	return cmd
}

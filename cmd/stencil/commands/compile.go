package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <path>...",
		Short: "Compile scripts ahead of their first use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := c.app.Precompile(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, u := range units {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "compiled %s\n", u.Identifier)
			}
			return nil
		},
	}
}

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove every compiled script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Clean(cmd.Context())
		},
	}
}

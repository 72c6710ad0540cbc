package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newFormatCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "format <pattern> [param]...",
		Short: "Call a formatting extension",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := make([]any, 0, len(args))
			for _, a := range args {
				params = append(params, a)
			}
			out, err := c.app.CallExtension(cmd.Context(), name, params...)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "extension", "format", "Name of the extension to call")
	return cmd
}

func (c *CLI) newExtensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List the registered extensions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range c.app.Extensions().Names() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/codec"
)

func (c *CLI) newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <path>...",
		Short: "Print the identifier of each content path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				identifier, err := codec.Encode(p)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), identifier)
			}
			return nil
		},
	}
}

func (c *CLI) newDecodeCmd() *cobra.Command {
	var sources bool
	cmd := &cobra.Command{
		Use:   "decode <identifier>",
		Short: "Print every content path an identifier may have been encoded from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decode := codec.Decode
			if sources {
				decode = func(identifier string) ([]string, error) {
					return codec.SourceCandidates(identifier, c.app.Naming())
				}
			}
			paths, err := decode(args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&sources, "sources", "s", false, "Append the use-object source extension")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stencil/internal/core/domain"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Clear memoized resolutions on content changes and deployments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Watch(cmd.Context())
		},
	}
}

func (c *CLI) newAnnounceCmd() *cobra.Command {
	var capability string
	cmd := &cobra.Command{
		Use:   "announce <name>",
		Short: "Announce a deployment to every runtime instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := domain.DeploymentEvent{Name: args[0]}
			if capability != "" {
				event.Headers = map[string]string{domain.RequireCapabilityHeader: capability}
			}
			return c.app.Announce(cmd.Context(), event)
		},
	}
	cmd.Flags().StringVar(&capability, "capability", "", "Value of the "+domain.RequireCapabilityHeader+" header")
	return cmd
}

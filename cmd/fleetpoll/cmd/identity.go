package cmd

import (
	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show software image, version, hardware and encryption class",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.collector(nil)
		if err != nil {
			return err
		}
		devices, err := a.devices(cmd.Context())
		if err != nil {
			return err
		}

		facts, err := c.ClassifyIdentity(cmd.Context(), devices)
		if renderErr := a.render(facts); renderErr != nil {
			return renderErr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(identityCmd)
}

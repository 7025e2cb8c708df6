package cmd

import (
	"github.com/spf13/cobra"

	"fleetpoll/internal/codec"
)

var neighborsDetail bool

var neighborsCmd = &cobra.Command{
	Use:   "neighbors",
	Short: "Show CDP state and neighbor count per device",
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

		if !neighborsDetail {
			facts, err := c.InspectNeighbors(cmd.Context(), devices)
			if renderErr := a.render(facts); renderErr != nil {
				return renderErr
			}
			return err
		}

		facts, tables, err := c.InspectNeighborsDetail(cmd.Context(), devices)
		if renderErr := a.render(codec.NeighborReport{Facts: facts, Tables: tables}); renderErr != nil {
			return renderErr
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(neighborsCmd)

	neighborsCmd.Flags().BoolVarP(&neighborsDetail, "detail", "d", false, "also list each neighbor and interface pair")
}

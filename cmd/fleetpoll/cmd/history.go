package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List runs recorded in the fact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.store == nil {
			return fmt.Errorf("no fact store configured (set database.path)")
		}

		if historyRun == "" {
			runs, err := a.store.RecentRuns(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			return a.render(runs)
		}

		run, err := a.store.GetRun(cmd.Context(), historyRun)
		if err != nil {
			return err
		}
		neighbors, err := a.store.NeighborFacts(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		if len(neighbors) > 0 {
			return a.render(neighbors)
		}
		identity, err := a.store.IdentityFacts(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		return a.render(identity)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list, 0 for all")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the facts of one run")
}

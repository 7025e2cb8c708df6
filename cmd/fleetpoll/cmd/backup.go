package cmd

import (
	"github.com/spf13/cobra"

	"fleetpoll/internal/archive"
)

var backupDir string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive the running configuration of every device",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if backupDir != "" {
			a.cfg.Archive.Dir = backupDir
		}

		c, err := a.collector(archive.NewDir(a.cfg.Archive.Dir))
		if err != nil {
			return err
		}
		devices, err := a.devices(cmd.Context())
		if err != nil {
			return err
		}

		report, runErr := c.BackupConfigs(cmd.Context(), devices)
		if err := a.render(report); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&backupDir, "dir", "", "archive directory (overrides config)")
}

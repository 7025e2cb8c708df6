package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	inventoryFile string
	concurrency   int
	debug         bool
	outputFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "fleetpoll",
	Short: "Poll Cisco IOS devices over SSH",
	Long: `fleetpoll logs into every device in the inventory, runs one show
command on each with bounded concurrency, and turns the replies into facts.

Commands:
  backup     archive running configurations
  neighbors  CDP state and neighbor count per device
  identity   software image, version, hardware and encryption class
  history    runs recorded in the fact store
  config     write a default config file`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. An interrupt stops devices that have not
// been contacted yet; sessions already open finish their command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search $FLEETPOLL_CONFIG, ./fleetpoll.yaml, XDG, /etc)")
	rootCmd.PersistentFlags().StringVarP(&inventoryFile, "inventory", "i", "", "devices file (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&concurrency, "concurrency", "c", 0, "devices polled at once (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

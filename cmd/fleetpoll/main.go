package main

import (
	"os"

	"fleetpoll/cmd/fleetpoll/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/guildmetrics/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "guildmetrics",
		Short: "Prometheus exporter for Discord guild activity",
		Long: `guildmetrics connects to the Discord gateway as a bot and exposes per-guild
membership, presence, channel, thread, message and reaction metrics on a
Prometheus pull endpoint. Gauges are kept current from gateway events and
rebuilt from a live snapshot on every recalibration interval.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewServeCmd(),
		commands.NewValidateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

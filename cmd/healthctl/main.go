package main

import (
	"os"

	"health-monitor/confs"
	"health-monitor/db"
	"health-monitor/logging"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "healthctl",
		Short:        "Health monitor maintenance: train models, inspect records",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := "warn"
			if debug {
				level = "debug"
			}
			logging.Init(logging.Config{Level: level, Format: "console"})
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging")
	cmd.AddCommand(newTrainCmd(), newDumpCmd(), newBrowseCmd())
	return cmd
}

// openDatabase connects using the same configuration as the server.
func openDatabase() (db.Database, error) {
	cfg, err := confs.LoadConfig()
	if err != nil {
		return nil, err
	}
	return db.Connect(cfg.Database)
}

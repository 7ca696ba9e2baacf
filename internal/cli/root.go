package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goListingd/internal/config"
	"github.com/LeJamon/goListingd/internal/version"
)

// Persistent flags shared by every command.
var (
	configFile string
	dataDir    string
	debug      bool
	standalone bool
)

// rootCmd runs the server when given no subcommand; see server.go.
var rootCmd = &cobra.Command{
	Use:   "listingd",
	Short: "listingd - escrow listing marketplace ledger",
	Long: `listingd runs a ledger for escrow listings: a seller locks units of one
asset in custody under a derived address and buyers purchase them, in whole or
in part, for a price per unit in another asset.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "listingd:", err)
	if errors.Is(err, errSnapshotsDiffer) {
		os.Exit(2)
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&dataDir, "datadir", "", "data directory (overrides data_dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVar(&standalone, "standalone", false, "enable the faucet")
}

// loadConfig reads the configuration and applies the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("datadir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("standalone") {
		cfg.Ledger.Standalone = standalone
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

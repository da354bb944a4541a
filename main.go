package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zweiadr/gw2advisor/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "gw2advisor",
	Short: "Inventory cleanup advice for Guild Wars 2 accounts",
	Long: "gw2advisor loads one or more GW2 accounts through the official API,\n" +
		"merges every bag, bank, shared slot and material storage into per-item\n" +
		"aggregates, and tells you what to restack, sell, salvage, craft away,\n" +
		"consume or delete.",
}

// loadConfig reads the configured YAML file, falling back to built-in
// defaults when no file exists at the default location.
func loadConfig() (*config.Config, error) {
	if cfgPath != "config.yaml" {
		return config.Load(cfgPath)
	}
	if _, err := os.Stat(cfgPath); err != nil {
		return config.Default(), nil
	}
	return config.Load(cfgPath)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd, adviseCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var configUsage = strings.TrimSpace(`
Commands in this namespace help you check what an audit would run with: the settings that were
resolved from flags, the config file and the environment, and which file they came from.
`)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the app config",
	Long:  configUsage,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

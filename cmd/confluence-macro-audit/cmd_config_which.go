/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whichCmd = &cobra.Command{
	Use:   "which",
	Short: "Tell me the resolved config path",
	Long: `
Output the filename the config was read from, after --config, CONFLUENCE_MACRO_AUDIT_CONFIG and
~ expansion have been applied.
`,
	Args: cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Config path: %s\n", Config)
	},
}

func init() {
	configCmd.AddCommand(whichCmd)
}

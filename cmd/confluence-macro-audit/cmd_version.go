/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.ExactArgs(0),
	// no config needed to say who we are
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	RunE: func(cmd *cobra.Command, args []string) error {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return fmt.Errorf("cmd_version: could not read build info")
		}

		version := Version
		if version == "unknown" {
			version = info.Main.Version
		}

		fmt.Fprintf(cmd.OutOrStdout(), "confluence-macro-audit version %s\n", shortVersion(version, info.Settings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Version will be the version tag if the binary is built with "go install url/tool@version",
// or set with -ldflags "-X main.Version=...".
var Version = "unknown"

// shortVersion glues the version tag and the vcs.* build settings into something like
// "v1.2.0-rev-abc123-dirty", or "devel" if we know nothing.
func shortVersion(version string, settings []debug.BuildSetting) string {
	revision := ""
	dirty := false
	for _, kv := range settings {
		switch kv.Key {
		case "vcs.revision":
			revision = kv.Value
		case "vcs.modified":
			dirty = kv.Value == "true"
		}
	}

	parts := make([]string, 0, 4)
	if version != "unknown" && version != "(devel)" && version != "" {
		parts = append(parts, version)
	}
	if revision != "" {
		parts = append(parts, "rev", revision)
		if dirty {
			parts = append(parts, "dirty")
		}
	}
	if len(parts) == 0 {
		return "devel"
	}
	return strings.Join(parts, "-")
}

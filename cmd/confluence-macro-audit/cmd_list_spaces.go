/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var IncludePersonal bool

var listSpacesUsage = strings.TrimSpace(`
If you want to find out what spaces your Confluence wiki has, use this command.  The keys it prints
are what the audit takes as its argument.
`)

var listSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "Print list of spaces",
	Long:  listSpacesUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		api, stop, err := newAPI()
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		defer stop()

		debugLog("Listing Confluence spaces in %s...\n", api.WebBase())
		spacesRemote, err := api.ListAllSpaces(ctx, IncludePersonal)
		if err != nil {
			return fmt.Errorf("list: couldn't list Confluence spaces: %w", err)
		}
		debugLog("Found %d spaces.\n", len(spacesRemote))

		spaceKeys := maps.Keys(spacesRemote)
		slices.Sort(spaceKeys)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "spaces:\n")
		for _, spaceKey := range spaceKeys {
			fmt.Fprintf(out, "  - %s: %s\n", spaceKey, spacesRemote[spaceKey].Name)
		}

		return nil
	},
}

func init() {
	listCmd.AddCommand(listSpacesCmd)

	listSpacesCmd.Flags().BoolVar(&IncludePersonal, "include-personal-spaces", false, "list individuals' personal spaces")
}

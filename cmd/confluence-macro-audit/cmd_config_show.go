/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Output current config",
	Long: `
Is something not working for you?  Have a look whether your config is as you expect.  Secrets are
masked.
`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		// Note, you can only talk about persistent flags here.  Command-specific ones won't be
		// visible.
		fmt.Fprintf(out, "Dump current config state:\n\n")

		fmt.Fprintf(out, "  Config file: %s\n", Config)
		fmt.Fprintf(out, "  Debug: %v\n", Debug)
		fmt.Fprintf(out, "  ConfluenceURL: %s\n", ConfluenceURL)
		fmt.Fprintf(out, "  AuthUsername: %s\n", AuthUsername)
		fmt.Fprintf(out, "  AuthToken: %s\n", mask(AuthToken))
		fmt.Fprintf(out, "  AuthTokenCmd: %v\n", AuthTokenCmd)
		fmt.Fprintf(out, "  WithVCR: %v\n", WithVCR)
		fmt.Fprintln(out)

		parsed, err := maskedConfig(ParsedConfig)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  Parsed YAML:\n%s\n", indent(parsed, "    "))

		return nil
	},
}

func init() {
	configCmd.AddCommand(showCmd)
}

func maskedConfig(c YamlConfig) (string, error) {
	c.AuthToken = mask(c.AuthToken)

	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("config show: couldn't marshal config: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

/*
Copyright © 2024 paul <paul@denknerd.org>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/fatih/structs"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

var (
	// Store the result of binding cobra flags
	Config string
	Debug  bool

	// Command to run to retrieve API Personal Access Token
	AuthTokenCmd []string
	AuthToken    string

	AuthUsername  string
	ConfluenceURL string

	OutputDir     string
	PageSize      int
	RetryAttempts int
	ProgressBar   bool
	WithVCR       bool

	ParsedConfig YamlConfig
)

// Build the cobra command that handles our command line tool.
var rootCmd = &cobra.Command{
	Use:   "confluence-macro-audit SPACE[,SPACE...]",
	Short: "Find Confluence pages with macros that no longer render",
	Long: `
Migrated a Confluence wiki and now some pages say "unknown macro"?  Give this tool a
comma-separated list of space keys and it will check every page in them, writing the ones with
unrenderable macro placeholders to SPACE-output.csv, along with how many of each it found.
`,
	Args: cobra.ExactArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return fmt.Errorf("confluence-macro-audit: failed to initialise config: %w", err)
		}
		return nil
	},
	RunE: auditRun,
}

func init() {
	// Define cobra flags, the default value has the lowest (least significant) precedence
	rootCmd.PersistentFlags().StringVar(&Config, "config", "", "config file location (default: ~/.config/confluence-macro-audit.yaml, respects CONFLUENCE_MACRO_AUDIT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "display debug output")
	rootCmd.PersistentFlags().StringSliceVar(&AuthTokenCmd, "auth-token-cmd", []string{}, "shell command to retrieve Atlassian auth token")
	rootCmd.PersistentFlags().StringVar(&AuthToken, "auth-token", "", "Atlassian auth token (or set CONFLUENCE_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&AuthUsername, "auth-username", "", "your Atlassian username")
	rootCmd.PersistentFlags().StringVar(&ConfluenceURL, "confluence-url", "", "your wiki's base URL, e.g. https://ORG.atlassian.net/wiki")
	rootCmd.PersistentFlags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to record and replay responses")

	rootCmd.Flags().StringVar(&OutputDir, "output-dir", ".", "directory to write SPACE-output.csv files to")
	rootCmd.Flags().IntVar(&PageSize, "page-size", 100, "how many pages to list per request")
	rootCmd.Flags().IntVar(&RetryAttempts, "retry-attempts", 3, "attempts per page fetch when the connection fails")
	rootCmd.Flags().BoolVar(&ProgressBar, "progress-bar", false, "draw a progress bar instead of a line per page")
}

func initializeConfig(cmd *cobra.Command) error {
	// A .env next to where we're run is the easiest place to keep a token out of the YAML.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("confluence-macro-audit: couldn't load .env: %w", err)
	}

	if Config == "" {
		// Did the user provide an ENV?
		envConfig := os.Getenv("CONFLUENCE_MACRO_AUDIT_CONFIG")
		if envConfig != "" {
			Config = envConfig
		} else {
			// As fallback, search for config in home XDG-ish directory
			Config = "~/.config/confluence-macro-audit.yaml"
		}
	}
	config, err := homedir.Expand(Config)
	if err != nil {
		return fmt.Errorf("confluence-macro-audit: unable to expand homedir: %w", err)
	}
	Config = config

	// Use config file from the flag.
	if _, err := os.Stat(Config); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Couldn't read config file %s, does it exist?  Override with --config.\n", Config)
		return fmt.Errorf("confluence-macro-audit: specified config file does not exist: %w", err)
	}

	ParsedConfig, err = readConfig(Config)
	if err != nil {
		return err
	}

	// Bind the current command's flags to the config file
	if err := bindFlags(cmd, ParsedConfig); err != nil {
		return fmt.Errorf("confluence-macro-audit: failed to bind flags: %w", err)
	}

	return nil
}

func readConfig(path string) (YamlConfig, error) {
	var parsed YamlConfig

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return parsed, fmt.Errorf("confluence-macro-audit: error reading config file: %w", err)
	}

	// I'd like to bark if a user sets a flag we don't recognise:
	if err := yaml.UnmarshalStrict(yamlFile, &parsed); err != nil {
		return parsed, fmt.Errorf("confluence-macro-audit: issue parsing config file: %w", err)
	}

	return parsed, nil
}

type YamlConfig struct {
	ProgressBar *bool `yaml:"progress-bar"`
	WithVCR     *bool `yaml:"with-vcr"`

	ConfluenceURL string   `yaml:"confluence-url"`
	AuthUsername  string   `yaml:"auth-username"`
	AuthToken     string   `yaml:"auth-token"`
	AuthTokenCmd  []string `yaml:"auth-token-cmd"`
	OutputDir     string   `yaml:"output-dir"`

	PageSize      int `yaml:"page-size"`
	RetryAttempts int `yaml:"retry-attempts"`
}

// Bind each cobra flag to its associated value in the config file, unless it was given on the
// command line.
func bindFlags(cmd *cobra.Command, v YamlConfig) error {
	for _, field := range structs.Fields(v) {
		key := field.Tag("yaml")
		if key == "" {
			return fmt.Errorf("confluence-macro-audit: could not retrieve struct tag 'yaml'")
		}
		if flag := cmd.Flag(key); flag == nil {
			// hmm... the flag is unknown.  but that can legitimately happen if you're running
			// e.g. `list spaces` which has no `output-dir` flag but your YAML file does
			// define that flag...
			continue
		}
		if !cmd.Flags().Changed(key) {
			switch field.Kind() {
			case reflect.Ptr:
				// err, this is crappy, but i know YamlConfig only uses pointers for bools.....
				b, ok := field.Value().(*bool)
				if !ok {
					return fmt.Errorf("confluence-macro-audit: found unrecognised field: %+v", field)
				}
				if b != nil {
					cmd.Flags().Set(key, fmt.Sprintf("%v", *b))
				}

			case reflect.String:
				s, ok := field.Value().(string)
				if !ok {
					return fmt.Errorf("confluence-macro-audit: found unrecognised field: %+v", field)
				}
				if s != "" {
					cmd.Flags().Set(key, s)
				}

			case reflect.Int:
				i, ok := field.Value().(int)
				if !ok {
					return fmt.Errorf("confluence-macro-audit: found unrecognised field: %+v", field)
				}
				if i != 0 {
					cmd.Flags().Set(key, strconv.Itoa(i))
				}

			case reflect.Slice:
				ss, ok := field.Value().([]string)
				if !ok {
					return fmt.Errorf("confluence-macro-audit: found unrecognised field: %+v", field)
				}
				for _, s := range ss {
					// yes, repeatedly calling Set() appends to the slice...
					cmd.Flags().Set(key, s)
				}

			default:
				return fmt.Errorf("confluence-macro-audit: found unrecognised field: %+v", field)
			}
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	// Flags are only available after (or inside, presumably) the .Execute() thing.
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("confluence-macro-audit: execution error: %w", err)
	}

	return nil
}

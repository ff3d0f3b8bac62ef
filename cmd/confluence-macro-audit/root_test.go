package main

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfig(t, `
confluence-url: https://example.atlassian.net/wiki
auth-username: someone@example.com
auth-token-cmd:
  - pass
  - show
  - confluence
output-dir: ~/reports
page-size: 50
progress-bar: true
`)

	c, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net/wiki", c.ConfluenceURL)
	assert.Equal(t, "someone@example.com", c.AuthUsername)
	assert.Equal(t, []string{"pass", "show", "confluence"}, c.AuthTokenCmd)
	assert.Equal(t, "~/reports", c.OutputDir)
	assert.Equal(t, 50, c.PageSize)
	require.NotNil(t, c.ProgressBar)
	assert.True(t, *c.ProgressBar)
	assert.Nil(t, c.WithVCR)
}

func TestReadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "confluence-url: https://example.atlassian.net/wiki\nconfluence_url: typo\n")

	_, err := readConfig(path)
	assert.Error(t, err)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	var (
		url, outputDir string
		pageSize       int
		progressBar    bool
		tokenCmd       []string
	)
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&url, "confluence-url", "", "")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "")
	cmd.Flags().IntVar(&pageSize, "page-size", 100, "")
	cmd.Flags().BoolVar(&progressBar, "progress-bar", false, "")
	cmd.Flags().StringSliceVar(&tokenCmd, "auth-token-cmd", []string{}, "")

	// given on the command line, so the config file must not win
	require.NoError(t, cmd.Flags().Set("confluence-url", "https://cli.example.com/wiki"))

	yes := true
	err := bindFlags(cmd, YamlConfig{
		ConfluenceURL: "https://config.example.com/wiki",
		OutputDir:     "/tmp/reports",
		PageSize:      25,
		ProgressBar:   &yes,
		AuthTokenCmd:  []string{"pass", "show"},
		// no such flag on this command, which is fine
		AuthUsername: "someone",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://cli.example.com/wiki", url)
	assert.Equal(t, "/tmp/reports", outputDir)
	assert.Equal(t, 25, pageSize)
	assert.True(t, progressBar)
	assert.Equal(t, []string{"pass", "show"}, tokenCmd)
}

func TestBindFlagsLeavesDefaults(t *testing.T) {
	var pageSize int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&pageSize, "page-size", 100, "")

	require.NoError(t, bindFlags(cmd, YamlConfig{}))
	assert.Equal(t, 100, pageSize)
}

func TestParseSpaces(t *testing.T) {
	assert.Equal(t, []string{"QA"}, parseSpaces("QA"))
	assert.Equal(t, []string{"QA", "DOCS", "CORE"}, parseSpaces("QA, DOCS,,CORE ,"))
	assert.Empty(t, parseSpaces(" , "))
}

func TestShortVersion(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "abc123"},
		{Key: "vcs.modified", Value: "true"},
	}

	assert.Equal(t, "v1.2.0-rev-abc123-dirty", shortVersion("v1.2.0", settings))
	assert.Equal(t, "rev-abc123-dirty", shortVersion("(devel)", settings))
	assert.Equal(t, "v1.2.0", shortVersion("v1.2.0", nil))
	assert.Equal(t, "devel", shortVersion("unknown", nil))
}

func TestMaskedConfig(t *testing.T) {
	out, err := maskedConfig(YamlConfig{
		ConfluenceURL: "https://example.atlassian.net/wiki",
		AuthToken:     "sekrit-token",
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "sekrit-token")
	assert.Contains(t, out, "********")
	assert.Contains(t, out, "confluence-url: https://example.atlassian.net/wiki")

	assert.Equal(t, "", mask(""))
	assert.Equal(t, "  a\n  b", indent("a\nb", "  "))
}

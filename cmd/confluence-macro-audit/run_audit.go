/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/toothbrush/confluence-macro-audit/audit"
	"github.com/toothbrush/confluence-macro-audit/confluence"
	"github.com/toothbrush/confluence-macro-audit/internal/retry"
)

const (
	retryInitialDelay = 2 * time.Second
	retryFactor       = 2
)

func auditRun(cmd *cobra.Command, args []string) error {
	spaces := parseSpaces(args[0])
	if len(spaces) == 0 {
		return fmt.Errorf("audit: no space keys in %q", args[0])
	}
	debugLog("Spaces: %v\n", spaces)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	outputDir, err := homedir.Expand(OutputDir)
	if err != nil {
		return fmt.Errorf("audit: couldn't expand output dir: %w", err)
	}

	api, stop, err := newAPI()
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	defer stop()

	start := time.Now()
	logger := log.New(cmd.OutOrStdout(), "", log.LstdFlags)
	logger.Printf("Starting audit of %d spaces on %s (local time zone %s)\n",
		len(spaces), api.WebBase(), start.Format("MST -07:00"))

	if err := checkLogin(ctx, api, logger); err != nil {
		return err
	}

	auditor := &audit.SpaceAuditor{
		API:            api,
		BaseURL:        api.WebBase(),
		OutputDir:      outputDir,
		PageSize:       PageSize,
		Retry:          retry.New(confluence.IsTransient, RetryAttempts, retryInitialDelay, retryFactor),
		FetchTimeout:   audit.DefaultFetchTimeout,
		ReportInterval: audit.DefaultReportInterval,
		Logger:         logger,
	}
	if ProgressBar {
		auditor.BarOutput = os.Stderr
	}

	summary, err := auditor.Run(ctx, spaces)
	totals := summary.Totals()
	logger.Printf("Checked %d pages in %d spaces: %d reported, %d failed.\n",
		totals.Processed+totals.Failed, len(summary.Spaces), totals.Reported, totals.Failed)
	fmt.Fprintf(cmd.OutOrStdout(), "Execution time: %.2f minutes\n", time.Since(start).Minutes())

	return err
}

// checkLogin makes sure the wiki is there and takes our credentials before we start writing
// report files.
func checkLogin(ctx context.Context, api *confluence.API, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	currentUser, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("audit: couldn't query current user: %w", err)
	}

	logger.Printf("Logged in as '%s (%s)'...\n", currentUser.DisplayName, currentUser.AccountID)
	return nil
}

// parseSpaces splits a comma-separated list of space keys, dropping blanks.
func parseSpaces(arg string) []string {
	spaces := []string{}
	for _, s := range strings.Split(arg, ",") {
		if s = strings.TrimSpace(s); s != "" {
			spaces = append(spaces, s)
		}
	}
	return spaces
}

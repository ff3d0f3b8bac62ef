/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/toothbrush/confluence-macro-audit/confluence"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"
)

// TokenEnv is consulted when neither --auth-token nor --auth-token-cmd give us a token.
const TokenEnv = "CONFLUENCE_API_TOKEN"

func resolveToken() (string, error) {
	if AuthToken != "" {
		return AuthToken, nil
	}

	if len(AuthTokenCmd) > 0 {
		tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
		if err != nil {
			return "", fmt.Errorf("couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
		}
		return strings.TrimSpace(strings.Split(string(tokenCmdOutput), "\n")[0]), nil
	}

	return os.Getenv(TokenEnv), nil
}

// newAPI builds the Confluence client from the resolved config.  The returned stop func must
// be called when done; it flushes the VCR cassette if we're recording.
func newAPI() (*confluence.API, func() error, error) {
	noop := func() error { return nil }

	token, err := resolveToken()
	if err != nil {
		return nil, noop, err
	}

	api, err := confluence.NewAPI(ConfluenceURL, AuthUsername, token)
	if err != nil {
		return nil, noop, fmt.Errorf("couldn't instantiate Confluence API: %w", err)
	}

	if !WithVCR {
		return api, noop, nil
	}

	// set up VCR recordings.
	opts := &recorder.Options{
		CassetteName:       "fixtures/confluence-macro-audit",
		Mode:               recorder.ModeReplayWithNewEpisodes,
		SkipRequestLatency: true,
		RealTransport:      http.DefaultTransport,
	}
	r, err := recorder.NewWithOptions(opts)
	if err != nil {
		return nil, noop, fmt.Errorf("couldn't set up go-vcr recording: %w", err)
	}

	// Add a hook which removes Authorization headers from all requests
	hook := func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	}
	r.AddHook(hook, recorder.AfterCaptureHook)
	r.SetReplayableInteractions(true)

	api.Client = r.GetDefaultClient()
	debugLog("Recording HTTP interactions to %s.yaml\n", opts.CassetteName)

	return api, r.Stop, nil
}

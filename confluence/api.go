package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func NewAPI(baseURL string, username string, token string) (*API, error) {

	if baseURL == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence URL with --confluence-url")
	}
	if username == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence username with --auth-username")
	}
	if token == "" {
		return &API{}, fmt.Errorf("confluence: auth token is empty, please check auth-token or auth-token-cmd")
	}

	// Endpoints are resolved relative to the base, so it must end in a slash or the last path
	// segment (usually "wiki") gets replaced.
	u, err := url.ParseRequestURI(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("confluence: REST API URL needs a scheme and host: %s", baseURL)
	}

	a := &API{
		BaseURI:  u,
		token:    token,
		username: username,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Where the wiki lives, e.g. https://ORG.atlassian.net/wiki/
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Auth info
	username, token string
}

// WebBase is the base URI without its trailing slash, the form page links are built from.
func (api *API) WebBase() string {
	return strings.TrimRight(api.BaseURI.String(), "/")
}

package confluence

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// getContentEndpoint returns the (v1) API endpoint to list content in a space:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
func (a *API) getContentEndpoint(opts ContentQuery) (*url.URL, error) {
	if opts.SpaceKey == "" {
		return nil, fmt.Errorf("confluence: please provide a space key to list content")
	}

	return a.resolveWithQuery("rest/api/content", opts)
}

// getPageByIDEndpoint returns the (v1) API endpoint to download one page:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
func (a *API) getPageByIDEndpoint(opts GetPageByIDQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide ID to get page by ID")
	}

	return a.resolveWithQuery(fmt.Sprintf("rest/api/content/%s", url.PathEscape(opts.ID)), opts)
}

// getSpaceEndpoint returns the (v1) API endpoint to fetch one space:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
func (a *API) getSpaceEndpoint(opts GetSpaceQuery) (*url.URL, error) {
	if opts.Key == "" {
		return nil, fmt.Errorf("confluence: please provide a space key")
	}

	return a.resolveWithQuery(fmt.Sprintf("rest/api/space/%s", url.PathEscape(opts.Key)), opts)
}

// getSpacesEndpoint returns the (v1) API endpoint to list spaces
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
func (a *API) getSpacesEndpoint(opts SpacesQuery) (*url.URL, error) {
	return a.resolveWithQuery("rest/api/space", opts)
}

// getCurrentUserEndpoint returns the (v1) API endpoint to query current user
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("rest/api/user/current")
}

func (a *API) resolveWithQuery(endpoint string, opts any) (*url.URL, error) {
	ep, err := a.resolveEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// Do a bit of error checking on endpoint format, and return it relative to the base URI.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	baseUri := a.BaseURI

	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	return baseUri.ResolveReference(ref), nil
}

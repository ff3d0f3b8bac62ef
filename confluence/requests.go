package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/buger/jsonparser"
)

// GetPageByID fetches a single piece of content.  Ask for history,version,body.view in
// opts.Expand if you want dates and a rendered body back.
func (api *API) GetPageByID(ctx context.Context, opts GetPageByIDQuery) (*Content, error) {
	ep, err := api.getPageByIDEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get single page endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var page Content

	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

func (api *API) GetSpace(ctx context.Context, opts GetSpaceQuery) (*Space, error) {
	ep, err := api.getSpaceEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get space endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var space Space

	if err := json.Unmarshal(body, &space); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &space, nil
}

// GetContent returns one batch of a space listing.  Only id, type and title are decoded, the
// rest of each result is ignored.
func (api *API) GetContent(ctx context.Context, opts ContentQuery) ([]PageRef, error) {
	ep, err := api.getContentEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	refs, err := parsePageRefs(body)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return refs, nil
}

func parsePageRefs(body []byte) ([]PageRef, error) {
	refs := []PageRef{}
	var itemErr error

	_, err := jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}

		id, err := jsonparser.GetString(value, "id")
		if err != nil {
			itemErr = fmt.Errorf("result at offset %d has no id: %w", offset, err)
			return
		}
		contentType, err := jsonparser.GetString(value, "type")
		if err != nil {
			itemErr = fmt.Errorf("result %s has no type: %w", id, err)
			return
		}
		// title is only ever used for messages.
		title, _ := jsonparser.GetString(value, "title")

		refs = append(refs, PageRef{ID: id, Type: contentType, Title: title})
	}, "results")
	if err != nil {
		return nil, err
	}
	if itemErr != nil {
		return nil, itemErr
	}

	return refs, nil
}

func (api *API) getSpaces(ctx context.Context, opts SpacesQuery) (*AllSpaces, error) {
	ep, err := api.getSpacesEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get spaces endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var allSpaces AllSpaces

	if err := json.Unmarshal(body, &allSpaces); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &allSpaces, nil
}

// CurrentUser return current user information
func (api *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := api.getCurrentUserEndpoint()
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get current user endpoint: %w", err)
	}

	body, err := api.request(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform http request: %w", err)
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &user, nil
}

// Request implements the basic Request function
func (api *API) request(ctx context.Context, url *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	req.Header.Add("Accept", "application/json, */*")

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("confluence: couldn't perform http request: %w", err))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		response.Body.Close()
		return nil, transportError(ctx, fmt.Errorf("confluence: couldn't read http response body: %w", err))
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't close response body: %w", err)
	}

	switch response.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPartialContent, http.StatusNoContent, http.StatusResetContent:
		return body, nil
	}

	return nil, &StatusError{
		Code:   response.StatusCode,
		Status: response.Status,
		URL:    url.String(),
	}
}

// transportError classifies a failure that happened before we had a full response.  The caller
// giving up is not something a retry can fix; everything else is.
func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return err
	}
	return &TransientError{Err: err}
}

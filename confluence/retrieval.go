package confluence

import (
	"context"
	"fmt"
	"time"
)

// ListPages returns the batch of pages in space starting at offset start.  It satisfies
// PageLister.
func (api *API) ListPages(ctx context.Context, space string, start, limit int) ([]PageRef, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	refs, err := api.GetContent(ctx, ContentQuery{
		SpaceKey: space,
		Type:     PageType,
		Start:    start,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't list pages in %s at %d: %w", space, start, err)
	}

	return refs, nil
}

func (api *API) ListAllSpaces(ctx context.Context, includePersonal bool) (map[string]Space, error) {
	spaces := map[string]Space{}

	query := SpacesQuery{
		Limit: 50,
	}

	if !includePersonal {
		// Logic here is a bit confusing.  The `type` parameter may be "global", "personal", or
		// nothing at all for both.  "global" will return spaces like DRE, CORE, etc., while
		// "personal" returns each user's space.  Leaving it empty gives us everything, so we only
		// set this if we _do not_ intend to include personal spaces in our query.
		query.Type = "global"
	}

	for {
		allspaces, err := api.getSpacesBatch(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list spaces: %w", err)
		}

		for _, space := range allspaces.Results {
			spaces[space.Key] = space
		}

		if allspaces.Links.Next == "" || len(allspaces.Results) == 0 {
			break
		}
		query.Start += len(allspaces.Results)
	}

	return spaces, nil
}

func (api *API) getSpacesBatch(ctx context.Context, query SpacesQuery) (*AllSpaces, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return api.getSpaces(ctx, query)
}

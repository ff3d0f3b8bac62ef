package confluence

// ContentQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
//
// This is the offset-paginated listing; the API never returns more than Limit results.
type ContentQuery struct {
	SpaceKey string `url:"spaceKey"`
	Type     string `url:"type,omitempty"`   // page, blogpost
	Status   string `url:"status,omitempty"` // current, archived, any
	Expand   string `url:"expand,omitempty"`

	Start int `url:"start"`
	Limit int `url:"limit,omitempty"` // page limit; default 25
}

// GetPageByIDQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
type GetPageByIDQuery struct {
	ID string `url:"-"` // ID of the page; required

	// Comma separated properties to expand, e.g. "history,version,body.view".
	Expand  string `url:"expand,omitempty"`
	Status  string `url:"status,omitempty"`
	Version int    `url:"version,omitempty"` // Allows you to retrieve a previously published version.
}

// GetSpaceQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
type GetSpaceQuery struct {
	Key    string `url:"-"` // key of the space; required
	Expand string `url:"expand,omitempty"`
}

// SpacesQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-get
type SpacesQuery struct {
	Keys   []string `url:"spaceKey,omitempty"`
	Type   string   `url:"type,omitempty"`   // global or personal
	Status string   `url:"status,omitempty"` // current or archived

	Start int `url:"start"`
	Limit int `url:"limit,omitempty"`
}

package confluence

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	UserKey     string `json:"userKey"`
	AccountID   string `json:"accountId"`
	AccountType string `json:"accountType"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-space/#api-wiki-rest-api-space-spacekey-get
type Space struct {
	ID     int    `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// PageRef is what a space listing tells us about an item: enough to fetch it.
type PageRef struct {
	ID    string
	Type  string
	Title string
}

// Content is the subset of the v1 content object we ask for with
// expand=history,version,body.view.
type Content struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`

	History *History `json:"history,omitempty"`
	Version *Version `json:"version,omitempty"`

	Body Body `json:"body"`
}

type History struct {
	Latest      bool   `json:"latest"`
	CreatedDate string `json:"createdDate"`
}

// Version defines the content version number
type Version struct {
	When      string `json:"when"`
	Message   string `json:"message,omitempty"`
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit"`
}

// Body holds the representations we asked to expand.
type Body struct {
	Storage *Storage `json:"storage,omitempty"`
	View    *Storage `json:"view,omitempty"`
}

// Storage defines the storage information
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

const (
	PageType     = "page"
	BlogpostType = "blogpost"
)

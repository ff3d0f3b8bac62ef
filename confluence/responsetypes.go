package confluence

// AllSpaces response type
type AllSpaces struct {
	Results []Space `json:"results"`

	Start int `json:"start"`
	Limit int `json:"limit"`
	Size  int `json:"size"`

	Links struct {
		// Relative URL of the next batch. Absent on the last one.
		Next string `json:"next"`
	} `json:"_links"`
}

package report

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is how dates appear in the report.
const DateFormat = "2006-01-02"

// PageContent is what we need to know about a page to decide whether it goes in the report.
type PageContent struct {
	Title        string
	CreatedDate  string
	ModifiedDate string
	BodyHTML     string
}

// Row is one line of the report.
type Row struct {
	Title    string
	URL      string
	Created  string
	Modified string
	Counts   MacroCounts
}

// MalformedTimestampError is returned when a page date isn't ISO-8601.
type MalformedTimestampError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("report: malformed %s timestamp %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error { return e.Err }

// Normalize turns fetched page content into a report row.  It returns a nil row, and no
// error, when the page has no macro placeholders at all: such pages are left out on purpose.
func Normalize(content PageContent, space, baseURL, pageID string) (*Row, error) {
	created, err := formatDate("created", content.CreatedDate)
	if err != nil {
		return nil, err
	}
	modified, err := formatDate("modified", content.ModifiedDate)
	if err != nil {
		return nil, err
	}

	counts := CountMacros(content.BodyHTML)
	if !counts.Any() {
		return nil, nil
	}

	return &Row{
		Title:    content.Title,
		URL:      PageURL(baseURL, space, pageID),
		Created:  created,
		Modified: modified,
		Counts:   counts,
	}, nil
}

// PageURL is where a human would go to look at the page.
func PageURL(baseURL, space, pageID string) string {
	return strings.Join([]string{strings.TrimSuffix(baseURL, "/"), "spaces", space, "pages", pageID}, "/")
}

// Accepted ISO-8601 shapes, most common first.  The ' ' separated ones mirror the 'T' ones.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02 15:04Z07:00",
	"2006-01-02",
}

// ParseTimestamp reads an ISO-8601 date-time.  A single trailing "Z" is dropped first and no
// zone conversion happens, so the date is the one written in the string.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSuffix(value, "Z")

	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return time.Time{}, firstErr
}

func formatDate(field, value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", &MalformedTimestampError{Field: field, Value: value, Err: err}
	}
	return t.Format(DateFormat), nil
}

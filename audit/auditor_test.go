package audit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toothbrush/confluence-macro-audit/confluence"
	"github.com/toothbrush/confluence-macro-audit/internal/retry"
)

const baseURL = "https://example.atlassian.net/wiki"

// fakeWiki is an in-memory Confluence.  Pages are listed in the order they were added.
type fakeWiki struct {
	mu sync.Mutex

	spaces  map[string][]confluence.PageRef
	content map[string]*confluence.Content

	// failures[id] is returned (and consumed) before the page is served.
	failures  map[string][]error
	listErr   error
	fetches   map[string]int
	listCalls int
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		spaces:   map[string][]confluence.PageRef{},
		content:  map[string]*confluence.Content{},
		failures: map[string][]error{},
		fetches:  map[string]int{},
	}
}

func (w *fakeWiki) addPage(space, id, title, created, modified, body string) {
	w.spaces[space] = append(w.spaces[space], confluence.PageRef{ID: id, Type: confluence.PageType, Title: title})
	w.content[id] = &confluence.Content{
		ID:      id,
		Type:    confluence.PageType,
		Title:   title,
		History: &confluence.History{Latest: true, CreatedDate: created},
		Version: &confluence.Version{When: modified, Number: 1},
		Body:    confluence.Body{View: &confluence.Storage{Representation: "view", Value: body}},
	}
}

func (w *fakeWiki) ListPages(ctx context.Context, space string, start, limit int) ([]confluence.PageRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.listCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.listErr != nil {
		return nil, w.listErr
	}
	refs := w.spaces[space]
	if start >= len(refs) {
		return nil, nil
	}
	end := start + limit
	if end > len(refs) {
		end = len(refs)
	}
	return refs[start:end], nil
}

func (w *fakeWiki) GetPageByID(ctx context.Context, opts confluence.GetPageByIDQuery) (*confluence.Content, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.fetches[opts.ID]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs := w.failures[opts.ID]; len(errs) > 0 {
		w.failures[opts.ID] = errs[1:]
		return nil, errs[0]
	}
	c, ok := w.content[opts.ID]
	if !ok {
		return nil, &confluence.StatusError{Code: 404, Status: "404 Not Found", URL: opts.ID}
	}
	return c, nil
}

func (w *fakeWiki) GetSpace(ctx context.Context, opts confluence.GetSpaceQuery) (*confluence.Space, error) {
	if _, ok := w.spaces[opts.Key]; !ok {
		return nil, &confluence.StatusError{Code: 404, Status: "404 Not Found", URL: opts.Key}
	}
	return &confluence.Space{Key: opts.Key, Name: opts.Key + " space", Type: "global"}, nil
}

const sampleBody = `<p>Intro</p><div class="wysiwyg-unknown-macro"><img src="/wiki/plugins/servlet/confluence/placeholder/unknown-macro?name=test1&amp;locale=en_GB"></div>`

const (
	reportHeader = "title,url,created_date,modified_date,counts\r\n"
	sampleRow    = "Sample Page 1,https://example.atlassian.net/wiki/spaces/QA/pages/12345,2021-09-01,2021-09-01,\"unknown-macro?name=test1: 1, wysiwyg-unknown-macro: 1\"\r\n"
)

func sampleWiki() *fakeWiki {
	w := newFakeWiki()
	w.addPage("QA", "12345", "Sample Page 1", "2021-09-01T12:34:56.000Z", "2021-09-01T12:34:56.000Z", sampleBody)
	w.addPage("QA", "67890", "Sample Page 2", "2021-09-02T08:00:00.000Z", "2021-09-03T08:00:00.000Z", "<p>No macros here.</p>")
	return w
}

func newAuditor(t *testing.T, api API, logs io.Writer) *SpaceAuditor {
	t.Helper()
	return &SpaceAuditor{
		API:       api,
		BaseURL:   baseURL,
		OutputDir: t.TempDir(),
		PageSize:  100,
		Retry:     retry.New(confluence.IsTransient, 3, time.Millisecond, 2),
		Logger:    log.New(logs, "", 0),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestAuditSpaceWritesOnlyPagesWithMacros(t *testing.T) {
	wiki := sampleWiki()
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.Run(context.Background(), []string{"QA"})
	require.NoError(t, err)

	path := filepath.Join(auditor.OutputDir, "QA-output.csv")
	assert.Equal(t, reportHeader+sampleRow, readFile(t, path))

	require.Len(t, summary.Spaces, 1)
	assert.Equal(t, SpaceSummary{Space: "QA", File: path, Processed: 2, Reported: 1}, summary.Spaces[0])
	assert.Equal(t, 1, wiki.listCalls)
}

func TestAuditSpaceOverwritesPreviousReport(t *testing.T) {
	wiki := sampleWiki()
	auditor := newAuditor(t, wiki, io.Discard)

	path := filepath.Join(auditor.OutputDir, "QA-output.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,stuff\r\nmore,stale,stuff\r\n"), 0600))

	_, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)
	assert.Equal(t, reportHeader+sampleRow, readFile(t, path))
}

func TestAuditSpaceWithNothingToReport(t *testing.T) {
	wiki := newFakeWiki()
	wiki.addPage("CLEAN", "1", "Tidy", "2021-01-01T00:00:00.000Z", "2021-01-01T00:00:00.000Z", "<p>all good</p>")
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.AuditSpace(context.Background(), "CLEAN")
	require.NoError(t, err)

	assert.Equal(t, reportHeader, readFile(t, summary.File))
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Reported)
}

func TestAuditSpaceSkipsPagesThatFail(t *testing.T) {
	wiki := sampleWiki()
	wiki.addPage("QA", "11111", "Broken", "2021-09-01T00:00:00.000Z", "2021-09-01T00:00:00.000Z", sampleBody)
	wiki.failures["11111"] = []error{&confluence.StatusError{Code: 500, Status: "500 Internal Server Error"}}

	var logs bytes.Buffer
	auditor := newAuditor(t, wiki, &logs)

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, reportHeader+sampleRow, readFile(t, summary.File))
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Processed)
	// not transient, so only one go at it
	assert.Equal(t, 1, wiki.fetches["11111"])
	assert.Contains(t, logs.String(), `Skipping page 11111 ("Broken")`)
}

func TestAuditSpaceRetriesTransientFailures(t *testing.T) {
	wiki := sampleWiki()
	reset := &confluence.TransientError{Err: errors.New("connection reset by peer")}
	wiki.failures["12345"] = []error{reset, reset}

	var logs bytes.Buffer
	auditor := newAuditor(t, wiki, &logs)

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, reportHeader+sampleRow, readFile(t, summary.File))
	assert.Equal(t, 3, wiki.fetches["12345"])
	assert.Equal(t, 0, summary.Failed)
	assert.Contains(t, logs.String(), "Page 12345: attempt 1 failed, retrying")
}

func TestAuditSpaceGivesUpAfterRetries(t *testing.T) {
	wiki := sampleWiki()
	reset := &confluence.TransientError{Err: errors.New("connection reset by peer")}
	wiki.failures["12345"] = []error{reset, reset, reset, reset}
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, reportHeader, readFile(t, summary.File))
	assert.Equal(t, 3, wiki.fetches["12345"])
	assert.Equal(t, 1, summary.Failed)
}

func TestAuditSpaceSkipsMalformedTimestamps(t *testing.T) {
	wiki := newFakeWiki()
	wiki.addPage("QA", "1", "Odd dates", "yesterday", "2021-09-01T12:34:56.000Z", sampleBody)
	wiki.addPage("QA", "2", "Odd but clean", "yesterday", "2021-09-01T12:34:56.000Z", "<p>fine</p>")
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, reportHeader, readFile(t, summary.File))
	assert.Equal(t, 2, summary.Failed)
}

func TestAuditSpaceSkipsPagesWithoutBody(t *testing.T) {
	wiki := sampleWiki()
	wiki.content["67890"].Body.View = nil
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Reported)
}

func TestAuditSpaceListingFailureIsFatal(t *testing.T) {
	wiki := sampleWiki()
	wiki.listErr = &confluence.StatusError{Code: 404, Status: "404 Not Found"}
	auditor := newAuditor(t, wiki, io.Discard)

	summary, err := auditor.Run(context.Background(), []string{"QA", "OTHER"})
	require.Error(t, err)

	var se *confluence.StatusError
	assert.ErrorAs(t, err, &se)
	// the report was started before the listing failed
	assert.Equal(t, reportHeader, readFile(t, filepath.Join(auditor.OutputDir, "QA-output.csv")))
	// and we stopped there
	require.Len(t, summary.Spaces, 1)
	assert.NoFileExists(t, filepath.Join(auditor.OutputDir, "OTHER-output.csv"))
}

func TestRunAuditsEverySpace(t *testing.T) {
	wiki := sampleWiki()
	wiki.addPage("DOCS", "777", "Guide", "2020-02-02T10:00:00.000+01:00", "2022-03-04T05:06:07.000Z",
		`unknown-macro?name=gliffy unknown-macro?name=gliffy unknown-macro?name=toc`)
	auditor := newAuditor(t, wiki, io.Discard)
	auditor.PageSize = 1

	summary, err := auditor.Run(context.Background(), []string{"QA", "DOCS"})
	require.NoError(t, err)

	require.Len(t, summary.Spaces, 2)
	assert.Equal(t, SpaceSummary{Processed: 3, Reported: 2}, summary.Totals())

	assert.Equal(t, reportHeader+sampleRow, readFile(t, filepath.Join(auditor.OutputDir, "QA-output.csv")))
	assert.Equal(t, reportHeader+
		"Guide,https://example.atlassian.net/wiki/spaces/DOCS/pages/777,2020-02-02,2022-03-04,"+
		"\"unknown-macro?name=gliffy: 2, unknown-macro?name=toc: 1, wysiwyg-unknown-macro: 0\"\r\n",
		readFile(t, filepath.Join(auditor.OutputDir, "DOCS-output.csv")))
}

func TestAuditSpaceInterrupted(t *testing.T) {
	wiki := sampleWiki()
	auditor := newAuditor(t, wiki, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := auditor.AuditSpace(ctx, "QA")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAuditSpaceWithProgressBar(t *testing.T) {
	wiki := sampleWiki()
	auditor := newAuditor(t, wiki, io.Discard)
	auditor.BarOutput = io.Discard

	summary, err := auditor.AuditSpace(context.Background(), "QA")
	require.NoError(t, err)

	assert.Equal(t, reportHeader+sampleRow, readFile(t, summary.File))
}

func TestReportRows(t *testing.T) {
	var logs bytes.Buffer
	var rows atomic.Int64
	rows.Store(3)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reportRows(ctx, log.New(&logs, "", 0), 5*time.Millisecond, "QA", &rows)

	assert.Contains(t, logs.String(), "QA: 3 rows so far\n")
}

func TestReportRowsDisabled(t *testing.T) {
	var logs bytes.Buffer
	var rows atomic.Int64

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	reportRows(ctx, log.New(&logs, "", 0), 0, "QA", &rows)

	assert.Empty(t, logs.String())
}

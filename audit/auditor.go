package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/toothbrush/confluence-macro-audit/confluence"
	"github.com/toothbrush/confluence-macro-audit/internal/retry"
	"github.com/toothbrush/confluence-macro-audit/report"
	"golang.org/x/sync/errgroup"
)

// PageExpand asks for everything a report row is built from.
const PageExpand = "history,version,body.view"

const (
	DefaultPageSize       = 100
	DefaultFetchTimeout   = 30 * time.Second
	DefaultReportInterval = 10 * time.Second
)

// API is the part of the Confluence client the auditor talks to.
type API interface {
	confluence.PageLister
	GetPageByID(ctx context.Context, opts confluence.GetPageByIDQuery) (*confluence.Content, error)
	GetSpace(ctx context.Context, opts confluence.GetSpaceQuery) (*confluence.Space, error)
}

// SpaceAuditor walks spaces one after the other, page by page, and writes every page that
// carries unknown-macro placeholders to <OutputDir>/<space>-output.csv.
type SpaceAuditor struct {
	API API
	// BaseURL is what report links are built from, e.g. https://ORG.atlassian.net/wiki
	BaseURL   string
	OutputDir string
	PageSize  int

	// Retry governs GetPageByID only.
	Retry        retry.Policy
	FetchTimeout time.Duration

	// ReportInterval is how often the running row count is printed.  Zero turns it off.
	ReportInterval time.Duration

	// If BarOutput is set, a progress bar is drawn there instead of logging every page.
	BarOutput io.Writer

	Logger *log.Logger
}

// SpaceSummary is what one space run amounts to.
type SpaceSummary struct {
	Space string
	File  string

	Processed int // fetched and checked, reportable or not
	Reported  int // written to the report
	Failed    int // skipped because of an error
}

// pageOutcome is the result of looking at a single page.
type pageOutcome struct {
	title string
	row   *report.Row
	err   error
}

func (s SpaceSummary) add(o pageOutcome) SpaceSummary {
	switch {
	case o.err != nil:
		s.Failed++
	case o.row != nil:
		s.Processed++
		s.Reported++
	default:
		s.Processed++
	}
	return s
}

// Summary collects the space summaries of a run.
type Summary struct {
	Spaces []SpaceSummary
}

func (s Summary) add(space SpaceSummary) Summary {
	s.Spaces = append(s.Spaces, space)
	return s
}

// Totals sums up every space.
func (s Summary) Totals() SpaceSummary {
	var total SpaceSummary
	for _, space := range s.Spaces {
		total.Processed += space.Processed
		total.Reported += space.Reported
		total.Failed += space.Failed
	}
	return total
}

// Run audits each space in turn.  Trouble with single pages is logged and skipped; anything
// that stops a space from being listed or its report from being written stops the run.
func (auditor *SpaceAuditor) Run(ctx context.Context, spaces []string) (Summary, error) {
	var summary Summary

	for _, space := range spaces {
		spaceSummary, err := auditor.AuditSpace(ctx, space)
		summary = summary.add(spaceSummary)
		if err != nil {
			return summary, fmt.Errorf("audit: space %s failed: %w", space, err)
		}
		auditor.Logger.Printf("%s: %d pages checked, %d reported, %d failed -> %s\n",
			space, spaceSummary.Processed, spaceSummary.Reported, spaceSummary.Failed, spaceSummary.File)
	}

	return summary, nil
}

// AuditSpace produces the report for one space.  The report file is recreated up front, so
// even a space with nothing to report ends up with a header-only file.
func (auditor *SpaceAuditor) AuditSpace(ctx context.Context, space string) (summary SpaceSummary, err error) {
	auditor.describeSpace(ctx, space)

	path := filepath.Join(auditor.OutputDir, report.FileName(space))
	sink, err := report.CreateCSV(path)
	if err != nil {
		return SpaceSummary{Space: space}, fmt.Errorf("audit: couldn't start report: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	var rows atomic.Int64
	var prog progress = &logProgress{logger: auditor.Logger, space: space}
	if auditor.BarOutput != nil {
		prog = newBarProgress(ctx, auditor.BarOutput, space, &rows)
	}

	walkCtx, stop := context.WithCancel(ctx)
	defer stop()

	grp, gctx := errgroup.WithContext(walkCtx)

	grp.Go(func() error {
		if auditor.BarOutput != nil {
			// the bar's own refresh shows the count
			return nil
		}
		reportRows(gctx, auditor.Logger, auditor.ReportInterval, space, &rows)
		return nil
	})

	summary = SpaceSummary{Space: space, File: path}
	grp.Go(func() error {
		// finishing the walk is what ends the periodic report
		defer stop()

		var werr error
		summary, werr = auditor.walkSpace(gctx, space, sink, prog, &rows, summary)
		return werr
	})

	err = grp.Wait()
	prog.close()

	return summary, err
}

func (auditor *SpaceAuditor) walkSpace(ctx context.Context, space string, sink *report.CSVSink, prog progress, rows *atomic.Int64, summary SpaceSummary) (SpaceSummary, error) {
	it := confluence.NewPageIterator(auditor.API, space, auditor.pageSize())

	for it.Next(ctx) {
		ref := it.Page()

		outcome := auditor.auditPage(ctx, space, ref)
		if outcome.err != nil {
			if ctx.Err() != nil {
				// we're being shut down; that's not the page's fault
				return summary, fmt.Errorf("audit: interrupted at page %s: %w", ref.ID, ctx.Err())
			}
			auditor.Logger.Printf("Skipping page %s (%q): %v\n", ref.ID, outcome.title, outcome.err)
		}

		if outcome.row != nil {
			if err := sink.Append(*outcome.row); err != nil {
				return summary, fmt.Errorf("audit: couldn't record page %s: %w", ref.ID, err)
			}
		}

		summary = summary.add(outcome)
		rows.Store(int64(summary.Reported))
		prog.pageDone(ref, outcome)
	}

	if err := it.Err(); err != nil {
		return summary, fmt.Errorf("audit: couldn't list pages: %w", err)
	}

	return summary, nil
}

// auditPage fetches one page and turns it into a row, or decides it doesn't need one.
func (auditor *SpaceAuditor) auditPage(ctx context.Context, space string, ref confluence.PageRef) pageOutcome {
	policy := auditor.Retry
	if policy.Notify == nil {
		policy.Notify = func(err error, attempt int, wait time.Duration) {
			auditor.Logger.Printf("Page %s: attempt %d failed, retrying in %s: %v\n", ref.ID, attempt, wait, err)
		}
	}

	content, err := retry.Value(ctx, policy, func(ctx context.Context) (*confluence.Content, error) {
		ctx, cancel := context.WithTimeout(ctx, auditor.fetchTimeout())
		defer cancel()

		return auditor.API.GetPageByID(ctx, confluence.GetPageByIDQuery{
			ID:     ref.ID,
			Expand: PageExpand,
		})
	})
	if err != nil {
		return pageOutcome{title: ref.Title, err: fmt.Errorf("audit: couldn't fetch page: %w", err)}
	}

	pc, err := pageContent(content)
	if err != nil {
		return pageOutcome{title: content.Title, err: err}
	}

	row, err := report.Normalize(pc, space, auditor.BaseURL, ref.ID)
	if err != nil {
		return pageOutcome{title: content.Title, err: fmt.Errorf("audit: couldn't build row: %w", err)}
	}

	return pageOutcome{title: content.Title, row: row}
}

func pageContent(content *confluence.Content) (report.PageContent, error) {
	if content.Body.View == nil {
		return report.PageContent{}, fmt.Errorf("audit: found nil .Body.View field for page %s", content.ID)
	}

	pc := report.PageContent{
		Title:    content.Title,
		BodyHTML: content.Body.View.Value,
	}
	if content.History != nil {
		pc.CreatedDate = content.History.CreatedDate
	}
	if content.Version != nil {
		pc.ModifiedDate = content.Version.When
	}

	return pc, nil
}

// describeSpace is informational only; not finding the space here is left for the listing to
// complain about.
func (auditor *SpaceAuditor) describeSpace(ctx context.Context, space string) {
	ctx, cancel := context.WithTimeout(ctx, auditor.fetchTimeout())
	defer cancel()

	s, err := auditor.API.GetSpace(ctx, confluence.GetSpaceQuery{Key: space})
	if err != nil {
		auditor.Logger.Printf("Couldn't look up space %s: %v\n", space, err)
		return
	}
	auditor.Logger.Printf("Auditing space %s: %s (%s)\n", s.Key, s.Name, s.Type)
}

func (auditor *SpaceAuditor) pageSize() int {
	if auditor.PageSize < 1 {
		return DefaultPageSize
	}
	return auditor.PageSize
}

func (auditor *SpaceAuditor) fetchTimeout() time.Duration {
	if auditor.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return auditor.FetchTimeout
}

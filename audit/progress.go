package audit

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/toothbrush/confluence-macro-audit/confluence"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progress is told about every page as it is finished with.  Purely cosmetic.
type progress interface {
	pageDone(ref confluence.PageRef, outcome pageOutcome)
	close()
}

type logProgress struct {
	logger *log.Logger
	space  string
	seen   int
}

func (p *logProgress) pageDone(ref confluence.PageRef, outcome pageOutcome) {
	p.seen++
	switch {
	case outcome.err != nil:
		p.logger.Printf("[%s %4d] failed:   %s %s\n", p.space, p.seen, ref.ID, outcome.title)
	case outcome.row != nil:
		p.logger.Printf("[%s %4d] reported: %s %s (%s)\n", p.space, p.seen, ref.ID, outcome.title, outcome.row.Counts)
	default:
		p.logger.Printf("[%s %4d] clean:    %s %s\n", p.space, p.seen, ref.ID, outcome.title)
	}
}

func (p *logProgress) close() {}

// barProgress draws a spinner with running counters instead of a line per page.  We don't know
// how many pages a space has until the listing runs out, so the total stays open until close.
type barProgress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newBarProgress(ctx context.Context, out io.Writer, space string, rows *atomic.Int64) *barProgress {
	p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(out))

	bar := p.AddBar(0,
		mpb.PrependDecorators(
			// display our name with one space on the right
			decor.Name(fmt.Sprintf("%s:", space),
				decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CurrentNoUnit("%d pages, "),
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("%d rows", rows.Load())
			}),
			decor.Spinner([]string{" /", " -", " \\", " |"}),
		),
	)

	return &barProgress{p: p, bar: bar}
}

func (b *barProgress) pageDone(ref confluence.PageRef, outcome pageOutcome) {
	b.bar.Increment()
}

func (b *barProgress) close() {
	// the total becomes whatever we got to
	b.bar.SetTotal(-1, true)
	b.p.Wait()
}

// reportRows prints how many rows a space has produced so far, every interval, until ctx is
// done.  It only ever reads rows.
func reportRows(ctx context.Context, logger *log.Logger, interval time.Duration, space string, rows *atomic.Int64) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Printf("%s: %d rows so far\n", space, rows.Load())
		case <-ctx.Done():
			return
		}
	}
}

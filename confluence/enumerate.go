package confluence

import (
	"context"
	"fmt"
)

// PageLister fetches one offset/limit batch of a space listing.  Implementations must never
// return more than limit results.
type PageLister interface {
	ListPages(ctx context.Context, space string, start, limit int) ([]PageRef, error)
}

// PageIterator walks every page in a space, one batch at a time, in the order the server lists
// them.  The walk ends after the first short batch.  Blogposts, attachments and anything else
// that isn't a "page" are skipped.
//
// Nothing is deduplicated: if the space is edited mid-walk, offsets shift and pages can be
// seen twice or not at all.
//
//	it := confluence.NewPageIterator(api, "CORE", 100)
//	for it.Next(ctx) {
//		ref := it.Page()
//	}
//	if err := it.Err(); err != nil { ... }
type PageIterator struct {
	lister   PageLister
	space    string
	pageSize int

	start   int
	batch   []PageRef
	current PageRef
	done    bool
	err     error
}

func NewPageIterator(lister PageLister, space string, pageSize int) *PageIterator {
	return &PageIterator{
		lister:   lister,
		space:    space,
		pageSize: pageSize,
	}
}

// Next advances to the next page, requesting another batch when the current one is used up.
// It returns false when the listing is exhausted or a request failed; check Err.
func (it *PageIterator) Next(ctx context.Context) bool {
	for len(it.batch) == 0 {
		if it.done || it.err != nil {
			return false
		}
		it.fetch(ctx)
	}

	it.current, it.batch = it.batch[0], it.batch[1:]
	return true
}

func (it *PageIterator) fetch(ctx context.Context) {
	if it.pageSize < 1 {
		it.err = fmt.Errorf("confluence: page size must be positive, got %d", it.pageSize)
		return
	}

	refs, err := it.lister.ListPages(ctx, it.space, it.start, it.pageSize)
	if err != nil {
		it.err = fmt.Errorf("confluence: listing %s failed: %w", it.space, err)
		return
	}

	// A short batch is the only end-of-listing signal.
	if len(refs) < it.pageSize {
		it.done = true
	}
	it.start += it.pageSize

	for _, ref := range refs {
		if ref.Type == PageType {
			it.batch = append(it.batch, ref)
		}
	}
}

// Page returns the page Next just advanced to.
func (it *PageIterator) Page() PageRef { return it.current }

func (it *PageIterator) Err() error { return it.err }

package dividend

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// PAGINATION WALKER - Multi-page result sets for one query
// =============================================================================

// PaginationKind selects how a source's result set spans pages.
type PaginationKind string

const (
	// PaginateNone fetches a single page.
	PaginateNone PaginationKind = "none"

	// PaginateNextLink follows "next page" anchors (rel="next" or a
	// list-item marked next), resolving each target against the address the
	// current page was fetched from.
	PaginateNextLink PaginationKind = "next"

	// PaginatePageParam increments an explicit page-number query parameter
	// and stops once a page yields fewer table rows than the page size.
	PaginatePageParam PaginationKind = "pages"
)

// maxWalkPages bounds every pagination strategy so a malformed or cyclic
// pagination trail can never produce an unbounded loop.
const maxWalkPages = 25

// fetchDocument fetches one page and parses it.
func fetchDocument(ctx context.Context, f Fetcher, rawURL string) (*goquery.Document, *url.URL, error) {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, page.URL, nil
}

// WalkNext fetches startURL and follows next-page affordances, invoking
// visit once per document. The walk stops when visit returns false, when no
// next affordance is found, when a follow-up fetch fails, or at the safety
// bound. A failed first fetch is returned as an error so the caller can
// classify the source unreachable.
func WalkNext(ctx context.Context, f Fetcher, startURL string, visit func(*goquery.Document) bool) error {
	current := startURL
	for page := 0; page < maxWalkPages; page++ {
		doc, base, err := fetchDocument(ctx, f, current)
		if err != nil {
			if page == 0 || ctx.Err() != nil {
				return err
			}
			// Mid-walk fetch failure ends the sequence.
			log.Printf("[Paginate] next-link walk stopped at page %d: %v", page, err)
			return nil
		}
		if !visit(doc) {
			return nil
		}
		next := nextPageURL(doc, base)
		if next == "" || next == current {
			return nil
		}
		current = next
	}
	log.Printf("[Paginate] next-link walk hit the %d page bound for %s", maxWalkPages, startURL)
	return nil
}

// nextPageURL finds the next-page affordance in a document and resolves it
// against the address the document was fetched from.
func nextPageURL(doc *goquery.Document, base *url.URL) string {
	anchor := doc.Find(`a[rel="next"]`).First()
	if anchor.Length() == 0 {
		anchor = doc.Find("li.next a, li[class*='next'] a").First()
	}
	href, ok := anchor.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String()
}

// WalkPaged fetches page 1, 2, 3... of makeURL, invoking visit once per
// document. visit returns the number of table rows the page yielded; the
// walk stops once a page yields strictly fewer rows than pageSize, or at the
// safety bound.
func WalkPaged(ctx context.Context, f Fetcher, makeURL func(page int) string, pageSize int, visit func(*goquery.Document) int) error {
	for page := 1; page <= maxWalkPages; page++ {
		doc, _, err := fetchDocument(ctx, f, makeURL(page))
		if err != nil {
			if page == 1 || ctx.Err() != nil {
				return err
			}
			log.Printf("[Paginate] paged walk stopped at page %d: %v", page, err)
			return nil
		}
		if visit(doc) < pageSize {
			return nil
		}
	}
	log.Printf("[Paginate] paged walk hit the %d page bound", maxWalkPages)
	return nil
}

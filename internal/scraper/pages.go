package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

type fetchedPage struct {
	number int
	doc    *goquery.Document
}

// scrapePages fetches [start, end] in concurrent batches and emits them in page order.
// Page 1 reuses the document already fetched for metadata.
func (s *Scraper) scrapePages(ctx context.Context, bookURL string, firstPage *goquery.Document, start, end int, cb Callbacks) error {
	total := max(0, end-start+1)
	current := 0

	for batchStart := start; batchStart <= end; batchStart += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		batchEnd := min(batchStart+batchSize-1, end)
		pages := make([]fetchedPage, batchEnd-batchStart+1)

		g, gctx := errgroup.WithContext(ctx)
		for i := range pages {
			i, number := i, batchStart+i
			g.Go(func() error {
				if number == 1 {
					pages[i] = fetchedPage{number: number, doc: firstPage}
					return nil
				}
				doc, err := s.fetchDoc(gctx, fmt.Sprintf("%s/%d", bookURL, number))
				if err != nil {
					return err
				}
				pages[i] = fetchedPage{number: number, doc: doc}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, p := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}

			content := p.doc.Find(selPageContent).First()
			if content.Length() == 0 {
				s.logger.Warn("Page has no content", "url", fmt.Sprintf("%s/%d", bookURL, p.number))
				continue
			}

			html, err := cleanPageHTML(content)
			if err != nil {
				return fmt.Errorf("failed to render page %d: %w", p.number, err)
			}

			if cb.OnPage != nil {
				cb.OnPage(BookPage{
					PageNumber: p.number,
					Page:       printedPage(p.doc, p.number),
					TextHTML:   html,
				})
			}

			current++
			if cb.OnProgress != nil {
				cb.OnProgress(Progress{Current: current, Total: total})
			}
		}
	}

	return nil
}

// printedPage reads the page number input, falling back to the URL position
func printedPage(doc *goquery.Document, fallback int) int {
	value, ok := doc.Find(selPageNumber).First().Attr("value")
	if !ok {
		return fallback
	}
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return n
	}
	if n, ok := leadingInt(value); ok {
		return n
	}
	return fallback
}

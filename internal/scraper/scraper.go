package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"shamela/internal/infrastructure/logging"
)

const (
	DefaultBaseURL   = "https://shamela.ws"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// pages fetched concurrently per batch
	batchSize = 5
)

// Scraper reads books from shamela.ws
type Scraper struct {
	baseURL   string
	collector *colly.Collector
	logger    logging.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL points the scraper at another host
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTransport routes every request through rt, e.g. the webview bridge
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Scraper) {
		if rt != nil {
			s.collector.WithTransport(rt)
		}
	}
}

// WithUserAgent overrides the default browser user agent
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.collector.UserAgent = ua
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new scraper instance
func New(opts ...Option) *Scraper {
	c := colly.NewCollector(
		colly.UserAgent(DefaultUserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(60 * time.Second)

	s := &Scraper{
		baseURL:   DefaultBaseURL,
		collector: c,
		logger:    logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Set reasonable limits
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*shamela.ws*",
		Parallelism: batchSize,
		RandomDelay: 250 * time.Millisecond,
	}); err != nil {
		s.logger.Warn("Failed to set scrape rate limit", "error", err)
	}
	return s
}

// BookURL returns the landing page of a book
func (s *Scraper) BookURL(bookID int) string {
	return fmt.Sprintf("%s/book/%d", s.baseURL, bookID)
}

// fetchDoc visits pageURL with a fresh clone of the collector so concurrent
// fetches keep their own callbacks
func (s *Scraper) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collector.Clone()
	// requests made by the clone are cancelled with ctx
	c.Context = ctx

	var doc *goquery.Document
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		d, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			fetchErr = fmt.Errorf("failed to parse %s: %w", pageURL, err)
			return
		}
		doc = d
	})

	c.OnError(func(r *colly.Response, err error) {
		switch {
		case r.StatusCode == http.StatusForbidden:
			fetchErr = ErrCloudflareChallenge
		case r.StatusCode != 0:
			fetchErr = &FetchError{Status: r.StatusCode}
		default:
			fetchErr = fmt.Errorf("failed to fetch %s: %w", pageURL, err)
		}
	})

	visitErr := c.Visit(pageURL)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, visitErr)
	}
	if doc == nil {
		return nil, fmt.Errorf("empty response from %s", pageURL)
	}
	return doc, nil
}

// ScrapeBook emits the book's metadata and then its pages in order.
// A cancelled ctx stops the scrape quietly: ctx.Err() is returned and OnError is not called.
func (s *Scraper) ScrapeBook(ctx context.Context, bookID int, opts Options, cb Callbacks) error {
	start := time.Now()

	err := s.scrape(ctx, bookID, opts, cb)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.LogError(s.logger, err, "scrape_book", map[string]interface{}{"book_id": bookID})
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}

	logging.LogOperation(s.logger, "scrape_book", time.Since(start), map[string]interface{}{"book_id": bookID})
	if cb.OnDone != nil {
		cb.OnDone()
	}
	return nil
}

func (s *Scraper) scrape(ctx context.Context, bookID int, opts Options, cb Callbacks) error {
	bookURL := s.BookURL(bookID)

	metaDoc, err := s.fetchDoc(ctx, bookURL)
	if err != nil {
		return err
	}
	firstPage, err := s.fetchDoc(ctx, bookURL+"/1")
	if err != nil {
		return err
	}

	info, err := parseBookInfo(bookID, bookURL, metaDoc, firstPage)
	if err != nil {
		return err
	}

	startPage, endPage := 1, max(NumberFromURL(firstPage.Find(selLastPage).First().AttrOr("href", "")), 1)
	if opts.Volume != "" {
		rng, ok := info.Volumes[opts.Volume]
		if !ok {
			return &VolumeNotFoundError{Name: opts.Volume}
		}
		startPage, endPage = rng[0], rng[1]
		narrowToVolume(&info, opts.Volume, rng)
	}

	if cb.OnMeta != nil {
		cb.OnMeta(info)
	}

	return s.scrapePages(ctx, bookURL, firstPage, startPage, endPage, cb)
}

func narrowToVolume(info *BookInfo, volume string, rng [2]int) {
	info.Volumes = map[string][2]int{volume: rng}
	info.TOC = CutTOC(info.TOC, rng)
	chapters := make(map[int][]string)
	for page, titles := range info.PageChapters {
		if page >= rng[0] && page <= rng[1] {
			chapters[page] = titles
		}
	}
	info.PageChapters = chapters
	info.Title = info.Title + " - " + volume
}

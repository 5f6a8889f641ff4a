package scraper

import (
	"errors"
	"fmt"
)

// TocItem is a table-of-contents entry; Children is empty for leaves
type TocItem struct {
	Page     int       `json:"page"`
	Text     string    `json:"text"`
	Children []TocItem `json:"children,omitempty"`
}

// BookInfo is the metadata emitted before any page
type BookInfo struct {
	ID           int               `json:"id"`
	URL          string            `json:"url"`
	Title        string            `json:"title"`
	Author       string            `json:"author,omitempty"`
	About        string            `json:"about,omitempty"`
	TOC          []TocItem         `json:"toc"`
	PageChapters map[int][]string  `json:"page_chapters"`
	Volumes      map[string][2]int `json:"volumes"`
}

// BookPage is one cleaned page of book text
type BookPage struct {
	PageNumber int    `json:"page_number"` // position in the book URL
	Page       int    `json:"page"`        // printed page number
	TextHTML   string `json:"text_html"`
}

// Progress counts emitted pages against the pages in range
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Options narrows a scrape
type Options struct {
	Volume string `json:"volume,omitempty"`
}

// Callbacks receive scrape results as they arrive. Nil callbacks are skipped.
type Callbacks struct {
	OnMeta     func(BookInfo)
	OnPage     func(BookPage)
	OnProgress func(Progress)
	OnDone     func()
	OnError    func(error)
}

var (
	ErrCloudflareChallenge = errors.New("cloudflare_challenge")
	ErrPageContentMissing  = errors.New("page_content_missing")
)

// FetchError is a non-2xx response other than 403
type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch_failed:%d", e.Status)
}

// VolumeNotFoundError is returned when Options.Volume names no volume of the book
type VolumeNotFoundError struct {
	Name string
}

func (e *VolumeNotFoundError) Error() string {
	return "volume_not_found:" + e.Name
}

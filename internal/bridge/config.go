package bridge

import (
	"net/url"
	"strings"
	"time"
)

// Config tunes the polling protocol between Go and the fetch window
type Config struct {
	Label  string // window used for in-page fetches
	Origin string // the window must be on this origin for in-page fetches to carry cookies

	CheckInterval   time.Duration // challenge polling interval
	MaxWait         time.Duration // overall challenge limit
	SettleDelay     time.Duration // pause between a check script and reading the URL
	PageLoadTimeout time.Duration // window availability and ready polling limit
	ReadyInterval   time.Duration
	ChunkInterval   time.Duration
	ChunkTimeout    time.Duration // per chunk
	ChunkSize       int           // base64 characters per hash chunk
}

// DefaultConfig returns the timings used against shamela.ws
func DefaultConfig() Config {
	return Config{
		Label:           "cf-fetch",
		Origin:          "https://shamela.ws",
		CheckInterval:   150 * time.Millisecond,
		MaxWait:         120 * time.Second,
		SettleDelay:     100 * time.Millisecond,
		PageLoadTimeout: 30 * time.Second,
		ReadyInterval:   20 * time.Millisecond,
		ChunkInterval:   8 * time.Millisecond,
		ChunkTimeout:    1500 * time.Millisecond,
		ChunkSize:       100000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Label == "" {
		c.Label = d.Label
	}
	if c.Origin == "" {
		c.Origin = d.Origin
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = d.CheckInterval
	}
	if c.MaxWait <= 0 {
		c.MaxWait = d.MaxWait
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = d.SettleDelay
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = d.PageLoadTimeout
	}
	if c.ReadyInterval <= 0 {
		c.ReadyInterval = d.ReadyInterval
	}
	if c.ChunkInterval <= 0 {
		c.ChunkInterval = d.ChunkInterval
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = d.ChunkTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	return c
}

// onOrigin reports whether pageURL shares the configured origin's host,
// subdomains included
func (c Config) onOrigin(pageURL string) bool {
	want, err := url.Parse(c.Origin)
	if err != nil || want.Hostname() == "" {
		return false
	}
	got, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(got.Hostname())
	base := strings.ToLower(want.Hostname())
	return host == base || strings.HasSuffix(host, "."+base)
}

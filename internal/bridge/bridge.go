package bridge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	dberrors "shamela/internal/infrastructure/errors"
	"shamela/internal/infrastructure/logging"
	"shamela/internal/webview"
)

// ErrUnavailable is returned when the fetch window is lost twice in a row
var ErrUnavailable = errors.New("fetch window unavailable")

// OriginError is returned when the fetch window is not on the configured
// origin. An in-page fetch from another origin is blocked by CORS.
type OriginError struct {
	Label  string
	URL    string
	Origin string
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("fetch window %s is at %s, not on %s", e.Label, e.URL, e.Origin)
}

// Request describes an in-page fetch
type Request struct {
	Method  string
	Headers map[string]string
	Body    string
}

// Response is the text body of an in-page fetch
type Response struct {
	Status int
	Body   string
	Header http.Header
}

// Bridge fetches pages from inside a webview window so they carry the
// window's cookies, using only the get-url and evaluate-script commands.
// Bodies travel back through location.hash.
type Bridge struct {
	host   webview.Host
	cfg    Config
	logger logging.Logger
	newID  func() string

	readyMu sync.Mutex
	ready   bool

	// transfers share the window's hash, one at a time
	transferMu sync.Mutex
}

// New creates a bridge over the windows known to host
func New(host webview.Host, cfg Config, logger logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Bridge{
		host:   host,
		cfg:    cfg.withDefaults(),
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Label returns the window the bridge fetches through
func (b *Bridge) Label() string {
	return b.cfg.Label
}

// Reset forgets that the challenge was passed
func (b *Bridge) Reset() {
	b.readyMu.Lock()
	b.ready = false
	b.readyMu.Unlock()
}

func (b *Bridge) eval(ctx context.Context, script string) error {
	return webview.Eval(ctx, b.host, b.cfg.Label, script)
}

func (b *Bridge) url(ctx context.Context) (string, error) {
	return webview.GetURL(ctx, b.host, b.cfg.Label)
}

// Available reports whether the fetch window is registered and on the
// configured origin
func (b *Bridge) Available(ctx context.Context) bool {
	b.readyMu.Lock()
	ready := b.ready
	b.readyMu.Unlock()
	if ready {
		return true
	}

	current, err := b.url(ctx)
	if err != nil {
		return false
	}
	return b.cfg.onOrigin(current)
}

// WaitForChallenge polls the window until it has left the challenge page.
// An unknown window aborts immediately; other failures are retried until MaxWait.
func (b *Bridge) WaitForChallenge(ctx context.Context) error {
	deadline := time.Now().Add(b.cfg.MaxWait)

	for time.Now().Before(deadline) {
		passed, err := b.challengePassed(ctx)
		if passed {
			return nil
		}
		if err != nil {
			if webview.IsNotFound(err) || ctx.Err() != nil {
				return err
			}
			b.logger.Debug("Challenge check failed", "label", b.cfg.Label, "error", err)
		}
		if err := sleep(ctx, b.cfg.CheckInterval); err != nil {
			return err
		}
	}

	return dberrors.HandleTimeoutError("WaitForChallenge", b.cfg.MaxWait.String())
}

func (b *Bridge) challengePassed(ctx context.Context) (bool, error) {
	if err := b.eval(ctx, challengeProbeScript); err != nil {
		return false, err
	}
	if err := sleep(ctx, 2*b.cfg.SettleDelay); err != nil {
		return false, err
	}
	current, err := b.url(ctx)
	if err != nil {
		return false, err
	}
	if isChallengeURL(current) {
		return false, nil
	}

	if err := b.eval(ctx, challengeCheckScript); err != nil {
		return false, err
	}
	if err := sleep(ctx, b.cfg.SettleDelay); err != nil {
		return false, err
	}
	checked, err := b.url(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(checked, "#CF_PASSED"), nil
}

// ensureReady waits for the window to answer and to pass the challenge, once
func (b *Bridge) ensureReady(ctx context.Context) error {
	b.readyMu.Lock()
	defer b.readyMu.Unlock()
	if b.ready {
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, b.cfg.PageLoadTimeout)
	var current string
	for {
		var err error
		current, err = b.url(loadCtx)
		if err == nil {
			break
		}
		if sleepErr := sleep(loadCtx, 100*time.Millisecond); sleepErr != nil {
			cancel()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
	cancel()

	// in-page fetches only carry the clearance cookies on the origin
	if !b.cfg.onOrigin(current) {
		return &OriginError{Label: b.cfg.Label, URL: current, Origin: b.cfg.Origin}
	}

	if err := b.WaitForChallenge(ctx); err != nil {
		return err
	}
	b.ready = true
	b.logger.Info("Fetch window passed challenge", "label", b.cfg.Label)
	return nil
}

// Fetch loads target from inside the window. A window lost during the
// first attempt is re-awaited and the fetch retried once.
func (b *Bridge) Fetch(ctx context.Context, target string, req *Request) (*Response, error) {
	if req == nil {
		req = &Request{}
	}

	for attempt := 0; attempt < 2; attempt++ {
		body, err := b.fetchOnce(ctx, target, req)
		if err == nil {
			header := make(http.Header)
			header.Set("Content-Type", "text/html")
			return &Response{Status: http.StatusOK, Body: body, Header: header}, nil
		}
		if attempt == 0 && webview.IsNotFound(err) {
			b.logger.Warn("Fetch window lost, retrying", "label", b.cfg.Label, "url", target)
			b.Reset()
			continue
		}
		return nil, err
	}

	return nil, ErrUnavailable
}

func (b *Bridge) fetchOnce(ctx context.Context, target string, req *Request) (string, error) {
	if err := b.ensureReady(ctx); err != nil {
		return "", err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	id := b.newID()
	script, err := captureScript(capturePayload{
		RequestID: id,
		URL:       target,
		Method:    method,
		Headers:   req.Headers,
		Body:      req.Body,
	}, b.cfg.ChunkSize)
	if err != nil {
		return "", fmt.Errorf("failed to build capture script: %w", err)
	}
	if err := b.eval(ctx, script); err != nil {
		return "", err
	}

	b.transferMu.Lock()
	defer b.transferMu.Unlock()
	return b.transfer(ctx, id)
}

// transfer reads the parked body for id back through location.hash
func (b *Bridge) transfer(ctx context.Context, id string) (string, error) {
	if err := b.eval(ctx, clearHashScript); err != nil {
		return "", err
	}

	chunkCount := 0
	deadline := time.Now().Add(b.cfg.PageLoadTimeout)
	for chunkCount == 0 && time.Now().Before(deadline) {
		if err := b.eval(ctx, statusScript(id)); err != nil {
			return "", err
		}
		current, err := b.url(ctx)
		if err != nil {
			return "", err
		}
		hash := hashOf(current)

		switch {
		case strings.HasPrefix(hash, markerPrefix(markerSingle, id)):
			if err := b.eval(ctx, deleteScript("__html_single_map", id)); err != nil {
				return "", err
			}
			return decodeBody(strings.TrimPrefix(hash, markerPrefix(markerSingle, id)))
		case strings.HasPrefix(hash, markerPrefix(markerReady, id)):
			n, err := strconv.Atoi(strings.TrimPrefix(hash, markerPrefix(markerReady, id)))
			if err != nil || n <= 0 {
				return "", fmt.Errorf("invalid chunk count in %q", hash)
			}
			chunkCount = n
			continue
		case strings.HasPrefix(hash, markerPrefix(markerError, id)):
			if err := b.eval(ctx, deleteScript("__html_errors", id)); err != nil {
				return "", err
			}
			return "", fmt.Errorf("capture error: %s", strings.TrimPrefix(hash, markerPrefix(markerError, id)))
		}

		if err := sleep(ctx, b.cfg.ReadyInterval); err != nil {
			return "", err
		}
	}

	if chunkCount == 0 {
		return "", errors.New("failed to prepare HTML chunks")
	}

	var encoded strings.Builder
	for i := 0; i < chunkCount; i++ {
		chunk, err := b.readChunk(ctx, id, i)
		if err != nil {
			return "", err
		}
		encoded.WriteString(chunk)
	}

	if err := b.eval(ctx, deleteScript("__html_chunks_map", id)); err != nil {
		return "", err
	}
	return decodeBody(encoded.String())
}

func (b *Bridge) readChunk(ctx context.Context, id string, index int) (string, error) {
	if err := b.eval(ctx, chunkScript(id, index)); err != nil {
		return "", err
	}

	prefix := markerPrefix(markerChunk, id) + strconv.Itoa(index) + ":"
	deadline := time.Now().Add(b.cfg.ChunkTimeout)
	for time.Now().Before(deadline) {
		current, err := b.url(ctx)
		if err != nil {
			return "", err
		}
		if hash := hashOf(current); strings.HasPrefix(hash, prefix) {
			return strings.TrimPrefix(hash, prefix), nil
		}
		if err := sleep(ctx, b.cfg.ChunkInterval); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to get chunk %d", index)
}

func decodeBody(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", dberrors.HandleDecodeError("transfer", "page body", err)
	}
	return string(raw), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package bridge

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport is an http.RoundTripper that performs every request through a Bridge.
// Responses always report 200 with a text/html body, as the page only exposes the text.
// When Fallback is set, requests go to it while the bridge window is unavailable.
type Transport struct {
	Bridge   *Bridge
	Fallback http.RoundTripper
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Fallback != nil && !t.Bridge.Available(req.Context()) {
		return t.Fallback.RoundTrip(req)
	}

	var body string
	if req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		body = string(raw)
	}

	headers := make(map[string]string, len(req.Header))
	for key := range req.Header {
		headers[key] = req.Header.Get(key)
	}

	res, err := t.Bridge.Fetch(req.Context(), req.URL.String(), &Request{
		Method:  req.Method,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", res.Status, http.StatusText(res.Status)),
		StatusCode:    res.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        res.Header,
		Body:          io.NopCloser(strings.NewReader(res.Body)),
		ContentLength: int64(len(res.Body)),
		Request:       req,
	}, nil
}

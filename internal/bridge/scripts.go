package bridge

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Hash markers written by the page and read back through the window URL
const (
	markerSingle = "SINGLE"
	markerReady  = "READY"
	markerChunk  = "CHUNK"
	markerError  = "ERROR"
)

const challengeProbeScript = `document.title.includes('moment') ? null : (window.__cf_passed = true)`

const challengeCheckScript = `window.location.hash = window.__cf_passed ? 'CF_PASSED' : 'CF_WAITING'`

const clearHashScript = `window.location.hash = ''`

type capturePayload struct {
	RequestID string            `json:"request_id"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body,omitempty"`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// captureScript starts a credentialed fetch in the page and parks the
// base64 body under the request id, chunked when larger than chunkSize.
func captureScript(p capturePayload, chunkSize int) (string, error) {
	if p.Headers == nil {
		p.Headers = map[string]string{}
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return `(function() {
	const payload = ` + string(payload) + `;
	const request = {method: payload.method, headers: payload.headers, credentials: 'include'};
	if (payload.body) { request.body = payload.body; }
	window.__html_chunks_map = window.__html_chunks_map || {};
	window.__html_single_map = window.__html_single_map || {};
	window.__html_errors = window.__html_errors || {};
	const toBase64 = (bytes) => {
		let binary = '';
		for (let i = 0; i < bytes.length; i += 0x8000) {
			binary += String.fromCharCode(...bytes.subarray(i, i + 0x8000));
		}
		return btoa(binary);
	};
	fetch(payload.url, request)
		.then(response => response.text())
		.then(html => {
			const base64 = toBase64(new TextEncoder().encode(html));
			const size = ` + fmt.Sprint(chunkSize) + `;
			if (base64.length <= size) {
				window.__html_single_map[payload.request_id] = base64;
				return;
			}
			const chunks = [];
			for (let i = 0; i < base64.length; i += size) { chunks.push(base64.slice(i, i + size)); }
			window.__html_chunks_map[payload.request_id] = chunks;
		})
		.catch(err => { window.__html_errors[payload.request_id] = err.message || 'fetch_failed'; });
})();`, nil
}

func statusScript(id string) string {
	return `(function() {
	const id = ` + quote(id) + `;
	const singles = window.__html_single_map || {};
	const chunks = window.__html_chunks_map || {};
	const errors = window.__html_errors || {};
	if (errors[id]) { window.location.hash = 'ERROR:' + id + ':' + encodeURIComponent(errors[id]); return; }
	if (singles[id]) { window.location.hash = 'SINGLE:' + id + ':' + singles[id]; return; }
	if (chunks[id]) { window.location.hash = 'READY:' + id + ':' + chunks[id].length; return; }
	window.location.hash = 'WAIT:' + id;
})();`
}

func chunkScript(id string, index int) string {
	return fmt.Sprintf(`(function() {
	const id = %s;
	const data = (window.__html_chunks_map || {})[id];
	window.location.hash = 'CHUNK:' + id + ':' + %d + ':' + (data ? data[%d] : '');
})();`, quote(id), index, index)
}

func deleteScript(mapName, id string) string {
	return "delete (window." + mapName + " || {})[" + quote(id) + "];"
}

// hashOf returns the decoded fragment of a window URL
func hashOf(windowURL string) string {
	i := strings.IndexByte(windowURL, '#')
	if i < 0 {
		return ""
	}
	raw := windowURL[i+1:]
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func markerPrefix(marker, id string) string {
	return marker + ":" + id + ":"
}

func isChallengeURL(u string) bool {
	return strings.Contains(u, "challenge") || strings.Contains(u, "cdn-cgi")
}

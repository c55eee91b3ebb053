package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrDecode is returned when a response body is not a JSON object.
var ErrDecode = errors.New("decoding response")

// Payload is a decoded Bot API response, typically {"ok": bool, "result": ...}.
type Payload map[string]any

// OK reports the API-level success flag.
func (p Payload) OK() bool {
	ok, _ := p["ok"].(bool)
	return ok
}

// Description returns the API error description, if any.
func (p Payload) Description() string {
	desc, _ := p["description"].(string)
	return desc
}

// Payload decodes the response body. Bodies that are not a JSON object are
// reported with ErrDecode; for HTML pages (proxies, gateways) the page title is
// included instead of the body.
func (r *Response) Payload() (Payload, error) {
	var payload Payload
	err := json.Unmarshal(r.Body, &payload)
	if err == nil && payload != nil {
		return payload, nil
	}

	if isHTML(r.Body) {
		title := htmlTitle(r.Body)
		if title == "" {
			title = "untitled page"
		}
		return nil, fmt.Errorf("%w: %s returned HTML (status %d): %s", ErrDecode, r.Method, r.StatusCode, title)
	}
	if err == nil {
		err = errors.New("not a JSON object")
	}
	return nil, fmt.Errorf("%w: %s (status %d): %v", ErrDecode, r.Method, r.StatusCode, err)
}

func isHTML(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.ToLower(bytes.TrimSpace(head))
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<title"))
}

// htmlTitle extracts the <title>, falling back to the first <h1>.
func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return strings.Join(strings.Fields(title), " ")
}

package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const maxBodyBytes = 20 << 20

// Kind classifies retrieved content for extraction and archiving.
type Kind string

const (
	KindHTML   Kind = "html"
	KindPDF    Kind = "pdf"
	KindText   Kind = "txt"
	KindJSON   Kind = "json"
	KindXML    Kind = "xml"
	KindBinary Kind = "bin"
)

// Document is the result of one retrieval: raw bytes plus whatever title and
// plain-text body could be derived from them.
type Document struct {
	URL  string
	Kind Kind
	// Ext is the archive file extension, usually the kind itself.
	Ext   string
	Raw   []byte
	Title string
	Text  string
}

// Client retrieves a URL once, classifies the payload, and extracts a title
// and body text.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch performs a single GET. Transport failures and non-2xx responses both
// surface as a fetch error; extraction failures do not (the document is
// returned with whatever could be derived).
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body",
				"error", closeErr,
				"url", rawURL)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	kind := classify(resp.Header.Get("Content-Type"), rawURL)

	doc := &Document{
		URL:  rawURL,
		Kind: kind,
		Ext:  string(kind),
		Raw:  raw,
	}
	c.extract(ctx, doc)

	return doc, nil
}

// classify maps the declared media type to a content kind, falling back to
// the URL suffix and finally to HTML.
func classify(contentType string, rawURL string) Kind {
	mime := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch mime {
	case "text/html", "application/xhtml+xml":
		return KindHTML
	case "application/pdf":
		return KindPDF
	case "text/plain":
		return KindText
	case "application/json":
		return KindJSON
	case "application/xml", "text/xml", "application/rss+xml", "application/atom+xml":
		return KindXML
	}

	if mime == "" {
		return classifyByExtension(rawURL)
	}

	return KindBinary
}

func classifyByExtension(rawURL string) Kind {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return KindHTML
	}

	switch strings.ToLower(strings.TrimPrefix(path.Ext(parsed.Path), ".")) {
	case "html", "htm":
		return KindHTML
	case "pdf":
		return KindPDF
	case "txt":
		return KindText
	case "json":
		return KindJSON
	case "xml", "rss", "atom":
		return KindXML
	}

	return KindHTML
}

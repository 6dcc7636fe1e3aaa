package content

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/encoding/charmap"
)

// extract fills doc.Title and doc.Text from doc.Raw according to doc.Kind.
// Extraction is best-effort: a parse failure leaves the field empty and is
// logged, it never fails the fetch.
func (c *Client) extract(ctx context.Context, doc *Document) {
	switch doc.Kind {
	case KindHTML:
		c.extractHTML(ctx, doc)
	case KindPDF:
		c.extractPDF(ctx, doc)
	case KindText:
		doc.Text = decodeText(doc.Raw)
	case KindXML:
		c.extractFeed(ctx, doc)
	case KindJSON, KindBinary:
		// No title or body is derivable.
	}
}

func (c *Client) extractHTML(ctx context.Context, doc *Document) {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Raw))
	if err != nil {
		c.log.WarnContext(ctx, "Failed to parse HTML",
			"error", err,
			"url", doc.URL)

		return
	}

	doc.Title = strings.TrimSpace(gq.Find("title").First().Text())

	// Readability isolates the article body; the stripped page text is the
	// fallback when it finds nothing.
	doc.Text = readableText(doc.Raw, doc.URL)
	if doc.Text == "" {
		doc.Text = visibleText(gq)
	}
}

func readableText(raw []byte, rawURL string) string {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(article.TextContent)
}

func visibleText(gq *goquery.Document) string {
	gq.Find("script, style, noscript").Remove()

	root := gq.Find("body")
	if root.Length() == 0 {
		root = gq.Selection
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

func (c *Client) extractPDF(ctx context.Context, doc *Document) {
	reader, err := pdf.NewReader(bytes.NewReader(doc.Raw), int64(len(doc.Raw)))
	if err != nil {
		c.log.WarnContext(ctx, "Failed to parse PDF",
			"error", err,
			"url", doc.URL)

		return
	}

	title := reader.Trailer().Key("Info").Key("Title")
	if title.Kind() == pdf.String {
		doc.Title = strings.TrimSpace(title.RawString())
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		c.log.WarnContext(ctx, "Failed to extract PDF text",
			"error", err,
			"url", doc.URL)

		return
	}

	var buf bytes.Buffer
	if _, err = buf.ReadFrom(textReader); err != nil {
		c.log.WarnContext(ctx, "Failed to read PDF text",
			"error", err,
			"url", doc.URL)

		return
	}

	doc.Text = strings.TrimSpace(buf.String())
}

// extractFeed treats XML payloads as RSS/Atom. A news collector sees feed
// URLs often enough that they are a first-class kind; anything gofeed cannot
// parse stays an opaque XML document.
func (c *Client) extractFeed(ctx context.Context, doc *Document) {
	parsed, err := gofeed.NewParser().ParseString(string(doc.Raw))
	if err != nil {
		c.log.WarnContext(ctx, "XML payload is not a parsable feed",
			"error", err,
			"url", doc.URL)

		return
	}

	doc.Title = strings.TrimSpace(parsed.Title)

	var parts []string
	if desc := strings.TrimSpace(parsed.Description); desc != "" {
		parts = append(parts, desc)
	}
	for _, item := range parsed.Items {
		line := strings.TrimSpace(item.Title)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			if line != "" {
				line += ": "
			}
			line += desc
		}
		if line != "" {
			parts = append(parts, line)
		}
	}

	doc.Text = strings.Join(parts, "\n")
}

// decodeText decodes plain text as UTF-8, falling back to Latin-1 so legacy
// payloads never come out empty.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}

	return string(decoded)
}

package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// ParagraphSeparator joins block-level text segments.
const ParagraphSeparator = "\n\n"

var (
	residualTag = regexp.MustCompile(`</?[A-Za-z!][^<>]*>`)
	openAngle   = regexp.MustCompile(`<([A-Za-z!/?])`)
	entityStart = regexp.MustCompile(`&([A-Za-z#])`)
	blankLine   = regexp.MustCompile(`\n\s*\n`)
)

var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// HTMLExtractor strips markup from fetched pages.
type HTMLExtractor struct{}

var _ ports.Extractor = (*HTMLExtractor)(nil)

// NewHTMLExtractor builds a stateless extractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract converts each document into exactly one item. A document without a
// source id aborts the whole batch.
func (e *HTMLExtractor) Extract(docs ...domain.RawDocument) ([]domain.ExtractedItem, error) {
	items := make([]domain.ExtractedItem, 0, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.SourceID) == "" {
			return nil, fmt.Errorf("%w: document %d has no url", domain.ErrMalformedDocument, i)
		}

		text, err := ExtractText(doc.Markup)
		if err != nil {
			return nil, fmt.Errorf("%w: document %s: %v", domain.ErrMalformedDocument, doc.SourceID, err)
		}

		items = append(items, domain.ExtractedItem{SourceID: doc.SourceID, Text: text})
	}
	return items, nil
}

// ExtractText returns the visible text of markup, one paragraph per text node.
func ExtractText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	var segments []string
	for _, node := range doc.Nodes {
		collectSegments(node, &segments)
	}

	return strings.TrimSpace(strings.Join(segments, ParagraphSeparator)), nil
}

func collectSegments(n *html.Node, segments *[]string) {
	switch n.Type {
	case html.ElementNode:
		if _, skip := skippedElements[strings.ToLower(n.Data)]; skip {
			return
		}
	case html.TextNode:
		// blank lines inside a text node are paragraph breaks already
		for _, part := range blankLine.Split(n.Data, -1) {
			if segment := plainSegment(part); segment != "" {
				*segments = append(*segments, segment)
			}
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectSegments(c, segments)
	}
}

// plainSegment collapses whitespace and rewrites decoded text that a
// later parse would read as markup: tag openers and character references.
func plainSegment(text string) string {
	text = residualTag.ReplaceAllString(text, " ")
	text = openAngle.ReplaceAllString(text, "< $1")
	text = strings.Join(strings.Fields(text), " ")
	if html.UnescapeString(text) != text {
		text = entityStart.ReplaceAllString(text, "& $1")
	}
	return text
}

// rawDocument mirrors the fetcher output; pointers detect absent fields.
type rawDocument struct {
	URL  *string `json:"url"`
	HTML *string `json:"html"`
}

// DecodeDocuments parses the fetch artifact, which is either a single
// {url, html} object or an array of them.
func DecodeDocuments(data []byte) ([]domain.RawDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty fetch artifact", domain.ErrMalformedDocument)
	}

	var raw []rawDocument
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("%w: decode array: %v", domain.ErrMalformedDocument, err)
		}
	case '{':
		var single rawDocument
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("%w: decode object: %v", domain.ErrMalformedDocument, err)
		}
		raw = []rawDocument{single}
	default:
		return nil, fmt.Errorf("%w: expected JSON object or array", domain.ErrMalformedDocument)
	}

	docs := make([]domain.RawDocument, 0, len(raw))
	for i, r := range raw {
		if r.URL == nil {
			return nil, fmt.Errorf("%w: document %d is missing url", domain.ErrMalformedDocument, i)
		}
		if r.HTML == nil {
			return nil, fmt.Errorf("%w: document %d (%s) is missing html", domain.ErrMalformedDocument, i, *r.URL)
		}
		docs = append(docs, domain.RawDocument{SourceID: *r.URL, Markup: *r.HTML})
	}
	return docs, nil
}

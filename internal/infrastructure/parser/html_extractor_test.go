package parser

import (
	"errors"
	"strings"
	"testing"

	"ThreatMonitor/internal/domain"
)

func TestExtractTextJoinsParagraphs(t *testing.T) {
	t.Parallel()

	markup := `<html><head><title>Forum</title><style>body{color:red}</style></head>
	<body>
	  <h1>Market   place</h1>
	  <script>var x = "<b>hidden</b>";</script>
	  <p>Selling <b>rifle</b> parts</p>
	  <!-- comment -->
	  <div>contact &amp; escrow</div>
	</body></html>`

	got, err := ExtractText(markup)
	if err != nil {
		t.Fatalf("ExtractText error: %v", err)
	}

	want := strings.Join([]string{"Forum", "Market place", "Selling", "rifle", "parts", "contact & escrow"}, ParagraphSeparator)
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", got, want)
	}
}

func TestExtractTextIsIdempotent(t *testing.T) {
	t.Parallel()

	markup := `<div><p>first line
	continues here</p><p>&lt;em&gt;escaped markup&lt;/em&gt; stays out</p><ul><li>one</li><li>two</li></ul></div>`

	once, err := ExtractText(markup)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if strings.ContainsAny(once, "<>") {
		t.Fatalf("extracted text still contains markup: %q", once)
	}

	twice, err := ExtractText(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if once != twice {
		t.Fatalf("extraction not idempotent:\n%q\n%q", once, twice)
	}
}

func TestExtractTextKeepsEscapedMarkupAsText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		markup string
		want   string
	}{
		{`<p>price x &lt;a y</p><p>tail</p>`, "price x < a y\n\ntail"},
		{`<p>&lt;!-- hidden</p><p>after</p>`, "< !-- hidden\n\nafter"},
		{`<p>a &lt;b c</p>`, "a < b c"},
		{`<p>close &lt;/div</p>`, "close < /div"},
		{`<p>php &lt;?echo</p>`, "php < ?echo"},
		{`<p>literal &amp;lt;b c</p>`, "literal & lt;b c"},
		{`<p>AT&amp;T and 1 &lt; 2</p>`, "AT&T and 1 < 2"},
	}

	for _, tc := range cases {
		once, err := ExtractText(tc.markup)
		if err != nil {
			t.Fatalf("ExtractText(%q): %v", tc.markup, err)
		}
		if once != tc.want {
			t.Fatalf("ExtractText(%q) = %q, want %q", tc.markup, once, tc.want)
		}
		twice, err := ExtractText(once)
		if err != nil {
			t.Fatalf("second pass %q: %v", once, err)
		}
		if twice != once {
			t.Fatalf("extraction not idempotent for %q:\n%q\n%q", tc.markup, once, twice)
		}
	}
}

func TestHTMLExtractorOneItemPerDocument(t *testing.T) {
	t.Parallel()

	docs := []domain.RawDocument{
		{SourceID: "http://a.onion/1", Markup: "<p>alpha</p>"},
		{SourceID: "http://a.onion/2", Markup: ""},
	}

	items, err := NewHTMLExtractor().Extract(docs...)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].SourceID != "http://a.onion/1" || items[0].Text != "alpha" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Text != "" {
		t.Fatalf("expected empty text for empty markup, got %q", items[1].Text)
	}
}

func TestHTMLExtractorRejectsMissingSource(t *testing.T) {
	t.Parallel()

	_, err := NewHTMLExtractor().Extract(domain.RawDocument{Markup: "<p>x</p>"})
	if !errors.Is(err, domain.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestDecodeDocumentsShapes(t *testing.T) {
	t.Parallel()

	single, err := DecodeDocuments([]byte(` {"url":"http://x","html":"<p>x</p>","status":"200 OK"}`))
	if err != nil {
		t.Fatalf("decode object: %v", err)
	}
	if len(single) != 1 || single[0].SourceID != "http://x" {
		t.Fatalf("unexpected single decode: %+v", single)
	}

	many, err := DecodeDocuments([]byte(`[{"url":"a","html":""},{"url":"b","html":"<i>b</i>","links":[]}]`))
	if err != nil {
		t.Fatalf("decode array: %v", err)
	}
	if len(many) != 2 || many[1].Markup != "<i>b</i>" {
		t.Fatalf("unexpected array decode: %+v", many)
	}
}

func TestDecodeDocumentsMissingFields(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing html": `[{"url":"a","html":"x"},{"url":"b"}]`,
		"missing url":  `{"html":"<p>x</p>"}`,
		"not json":     `url,html`,
		"empty":        `   `,
	}
	for name, payload := range cases {
		if _, err := DecodeDocuments([]byte(payload)); !errors.Is(err, domain.ErrMalformedDocument) {
			t.Fatalf("%s: expected ErrMalformedDocument, got %v", name, err)
		}
	}
}

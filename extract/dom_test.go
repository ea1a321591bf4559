package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/kalinav4l/site-scraper/config"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url %q: %v", raw, err)
	}
	return parsed
}

func TestTitleAndText(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><head><title> Magazin   Online </title></head>
		<body><script>var x=1;</script><p>Bun venit</p><p>la noi</p></body></html>`)

	if got := Title(doc); got != "Magazin Online" {
		t.Fatalf("Title = %q", got)
	}
	text := TextContent(doc)
	if !strings.Contains(text, "Bun venit") || !strings.Contains(text, "la noi") {
		t.Fatalf("TextContent = %q, missing body text", text)
	}
	if strings.Contains(text, "var x") {
		t.Fatalf("TextContent should strip scripts, got %q", text)
	}
}

func TestTitleMissing(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<html><body><p>no title here</p></body></html>`)
	if got := Title(doc); got != "" {
		t.Fatalf("Title = %q, want empty", got)
	}
}

func TestLinksResolvedAndDeduplicated(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://shop.example/catalog/")
	doc := parseDoc(t, `<body>
		<a href="/products/1">one</a>
		<a href="products/2">two</a>
		<a href="/products/1">one again</a>
		<a href="https://other.example/x">external</a>
		<a href="#top">fragment</a>
		<a href="mailto:x@y.z">mail</a>
	</body>`)

	links := Links(doc, base)
	want := []string{
		"https://shop.example/products/1",
		"https://shop.example/catalog/products/2",
		"https://other.example/x",
	}
	if len(links) != len(want) {
		t.Fatalf("links = %v, want %v", links, want)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Fatalf("links[%d] = %q, want %q", i, links[i], want[i])
		}
	}
}

func TestImagesLazyAttributes(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://shop.example/")
	doc := parseDoc(t, `<body>
		<img src="/img/a.jpg">
		<img data-src="/img/lazy.jpg">
		<img data-lazy="/img/lazier.jpg">
		<img srcset="/img/small.jpg 1x, /img/big.jpg 2x">
		<img src="data:image/gif;base64,AAAA" data-original="/img/real.jpg">
		<img src="/img/a.jpg">
	</body>`)

	images := Images(doc, base)
	want := []string{
		"https://shop.example/img/a.jpg",
		"https://shop.example/img/lazy.jpg",
		"https://shop.example/img/lazier.jpg",
		"https://shop.example/img/small.jpg",
		"https://shop.example/img/real.jpg",
	}
	if len(images) != len(want) {
		t.Fatalf("images = %v, want %v", images, want)
	}
	for i := range want {
		if images[i] != want[i] {
			t.Fatalf("images[%d] = %q, want %q", i, images[i], want[i])
		}
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<head>
		<meta name="description" content="Cel mai bun magazin">
		<meta property="og:title" content="Magazin">
		<meta name="empty" content="">
		<script type="application/ld+json">{"@type":"Product","name":"Televizor","price":1299.5}</script>
		<script type="application/ld+json">not json at all</script>
	</head>
	<body><span itemprop="brand">Samsung</span></body>`)

	meta := Metadata(doc, true)
	if meta["description"] != "Cel mai bun magazin" {
		t.Fatalf("description = %q", meta["description"])
	}
	if meta["og:title"] != "Magazin" {
		t.Fatalf("og:title = %q", meta["og:title"])
	}
	if meta["jsonld:@type"] != "Product" {
		t.Fatalf("jsonld type = %q", meta["jsonld:@type"])
	}
	if meta["jsonld:name"] != "Televizor" {
		t.Fatalf("jsonld name = %q", meta["jsonld:name"])
	}
	if meta["jsonld:price"] != "1299.5" {
		t.Fatalf("jsonld price = %q", meta["jsonld:price"])
	}
	if meta["itemprop:brand"] != "Samsung" {
		t.Fatalf("itemprop brand = %q", meta["itemprop:brand"])
	}
	if _, ok := meta["empty"]; ok {
		t.Fatalf("empty meta content should be dropped")
	}
}

func TestMetadataStructuredDisabled(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<head>
		<meta name="author" content="x">
		<script type="application/ld+json">{"name":"Televizor"}</script>
	</head>`)

	meta := Metadata(doc, false)
	if _, ok := meta["jsonld:name"]; ok {
		t.Fatalf("structured data should be skipped when disabled")
	}
	if meta["author"] != "x" {
		t.Fatalf("meta tags should still be collected")
	}
}

func TestTablesFormsHeaders(t *testing.T) {
	t.Parallel()

	base := mustURL(t, "https://shop.example/")
	doc := parseDoc(t, `<body>
		<h1>Catalog</h1><h2>Oferte</h2>
		<table><caption>Specificatii</caption>
			<tr><th>Greutate</th><td>2 kg</td></tr>
			<tr><td>Culoare</td><td>negru</td></tr>
		</table>
		<form action="/subscribe" method="post">
			<input name="email"><select name="topic"></select>
		</form>
	</body>`)

	headers := Headers(doc)
	if len(headers) != 2 || headers[0] != "Catalog" {
		t.Fatalf("headers = %v", headers)
	}

	tables := Tables(doc)
	if len(tables) != 1 || tables[0].Caption != "Specificatii" || len(tables[0].Rows) != 2 {
		t.Fatalf("tables = %+v", tables)
	}

	forms := Forms(doc, base)
	if len(forms) != 1 {
		t.Fatalf("forms = %+v", forms)
	}
	if forms[0].Action != "https://shop.example/subscribe" || forms[0].Method != "POST" {
		t.Fatalf("form = %+v", forms[0])
	}
	if len(forms[0].Inputs) != 2 {
		t.Fatalf("inputs = %v", forms[0].Inputs)
	}
}

func TestBuildPageRecordMalformedMarkup(t *testing.T) {
	t.Parallel()

	// Unclosed tags and nonsense attributes must degrade, not panic.
	doc := parseDoc(t, `<html><body><div><a href="/x">link<img src=</div><p>text`)
	record := BuildPageRecord(doc, mustURL(t, "https://shop.example/"), config.DefaultSettings())
	if record.URL != "https://shop.example/" {
		t.Fatalf("record url = %q", record.URL)
	}
	if record.Title != "" {
		t.Fatalf("missing title should be empty, got %q", record.Title)
	}
}

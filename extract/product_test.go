package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kalinav4l/site-scraper/config"
)

const listingPage = `<html><body>
<nav aria-label="breadcrumb"><a href="/">Acasa</a><a href="/electronice">Electronice</a><a href="/electronice/tv">Televizoare</a></nav>
<div class="product" data-sku="TV-100">
	<h3>Televizor LED 80cm</h3>
	<span class="price">€19.99</span>
	<span class="old-price">€29.99</span>
	<span class="discount">-33%</span>
	<div class="description">Un televizor compact cu diagonala de 80 cm, potrivit pentru bucatarie sau dormitor.</div>
	<img src="/img/tv-100.jpg" alt="Televizor LED">
	<img src="/img/logo.png" alt="logo">
	<a href="/produs/tv-100">detalii</a>
	<ul class="specs">
		<li>Diagonala: 80 cm</li>
		<li>Rezolutie: HD Ready</li>
	</ul>
</div>
<div class="product">
	<h3>Televizor OLED 140cm</h3>
	<span class="price">1.299,00 lei</span>
	<a href="/produs/tv-200">detalii</a>
</div>
</body></html>`

func TestExtractSelectorCascade(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, listingPage)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/electronice/tv"))
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}

	first := products[0]
	if first.Name != "Televizor LED 80cm" {
		t.Fatalf("name = %q", first.Name)
	}
	if first.Price != "€19.99" {
		t.Fatalf("price = %q, want raw matched substring with currency", first.Price)
	}
	if first.OriginalPrice != "€29.99" {
		t.Fatalf("original price = %q", first.OriginalPrice)
	}
	if first.Discount != "-33%" {
		t.Fatalf("discount = %q", first.Discount)
	}
	if !strings.Contains(first.Description, "televizor compact") {
		t.Fatalf("description = %q", first.Description)
	}
	if first.ProductURL != "https://shop.example/produs/tv-100" {
		t.Fatalf("product url = %q", first.ProductURL)
	}
	if first.SKU != "TV-100" {
		t.Fatalf("sku = %q", first.SKU)
	}
	if v, ok := first.Specifications.Get("Diagonala"); !ok || v != "80 cm" {
		t.Fatalf("specifications = %+v", first.Specifications)
	}
	if len(first.Images) != 1 || !strings.HasSuffix(first.Images[0], "tv-100.jpg") {
		t.Fatalf("images = %v, logo should be filtered", first.Images)
	}
	if len(first.Breadcrumbs) != 3 || first.Category != "Electronice" || first.Subcategory != "Televizoare" {
		t.Fatalf("breadcrumbs = %v category = %q subcategory = %q", first.Breadcrumbs, first.Category, first.Subcategory)
	}
	if first.ID == "" || !strings.HasPrefix(first.ID, "shop.example-") {
		t.Fatalf("id = %q", first.ID)
	}

	second := products[1]
	if second.Price != "1.299,00 lei" {
		t.Fatalf("second price = %q", second.Price)
	}
	if first.ID == second.ID {
		t.Fatalf("ids must be session-unique")
	}
}

func TestExtractAdmissionRule(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<body>
		<div class="product"><img src="/img/only.jpg"></div>
	</body>`)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	// An image-only item has no name, price, or description and must
	// be discarded; the sentinel name is not applied to empty records.
	if products := extractor.Extract(doc, mustURL(t, "https://shop.example/")); len(products) != 0 {
		t.Fatalf("image-only item should be discarded, got %+v", products[0])
	}
}

func TestExtractNothingOnPlainPage(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<body><p>Despre noi: suntem o echipa mica.</p></body>`)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	if products := extractor.Extract(doc, mustURL(t, "https://shop.example/despre")); len(products) != 0 {
		t.Fatalf("plain page should yield no products, got %d", len(products))
	}
}

func TestStructuralFallback(t *testing.T) {
	t.Parallel()

	// No known container class anywhere; repeated siblings carrying
	// price-like text must still be detected.
	var b strings.Builder
	b.WriteString(`<body><ul class="xyz">`)
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b, `<li class="row"><h4>Articol %d</h4><span class="price">%d9,99 lei</span></li>`, i, i)
	}
	b.WriteString(`</ul></body>`)

	doc := parseDoc(t, b.String())
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/lista"))
	if len(products) != 4 {
		t.Fatalf("got %d products from structural fallback, want 4", len(products))
	}
	if products[0].Name != "Articol 1" {
		t.Fatalf("name = %q", products[0].Name)
	}
	if products[0].Price == "" {
		t.Fatalf("price should be matched from fallback items")
	}
}

func TestNameSentinel(t *testing.T) {
	t.Parallel()

	// Price present but nothing name-like long enough.
	doc := parseDoc(t, `<body><div class="product"><span class="price">€5.00</span></div></body>`)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/"))
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
	if products[0].Name != unknownName {
		t.Fatalf("name = %q, want sentinel %q", products[0].Name, unknownName)
	}
}

func TestExtractionTogglesHonored(t *testing.T) {
	t.Parallel()

	settings := config.DefaultSettings()
	settings.ExtractPrices = false
	settings.ExtractImages = false
	settings.ExtractReviews = false

	doc := parseDoc(t, listingPage)
	extractor := NewProductExtractor(settings, nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/electronice/tv"))
	if len(products) == 0 {
		t.Fatalf("expected products")
	}
	for _, p := range products {
		if p.Price != "" || p.OriginalPrice != "" {
			t.Fatalf("price extraction disabled but got %q/%q", p.Price, p.OriginalPrice)
		}
		if len(p.Images) != 0 {
			t.Fatalf("image extraction disabled but got %v", p.Images)
		}
		if p.Reviews != nil {
			t.Fatalf("review extraction disabled but got %+v", p.Reviews)
		}
	}
}

func TestSpecificationsLastWriterWins(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<body><div class="product">
		<h3>Produs test</h3>
		<table><caption>Specificatii</caption>
			<tr><td>Culoare</td><td>alb</td></tr>
		</table>
		<ul><li>Culoare: negru</li></ul>
	</div></body>`)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/"))
	if len(products) != 1 {
		t.Fatalf("got %d products", len(products))
	}
	if v, _ := products[0].Specifications.Get("Culoare"); v != "negru" {
		t.Fatalf("Culoare = %q, want later source to win", v)
	}
}

func TestReviewsParsed(t *testing.T) {
	t.Parallel()

	doc := parseDoc(t, `<body><div class="product">
		<h3>Produs recenzat</h3>
		<span class="price">€9.99</span>
		<span itemprop="ratingValue" content="4.5"></span>
		<span class="review-count">12 recenzii</span>
		<p class="review-text">Foarte multumit de acest produs.</p>
	</div></body>`)
	extractor := NewProductExtractor(config.DefaultSettings(), nil)

	products := extractor.Extract(doc, mustURL(t, "https://shop.example/"))
	if len(products) != 1 || products[0].Reviews == nil {
		t.Fatalf("expected reviews, got %+v", products)
	}
	r := products[0].Reviews
	if r.Count != 12 {
		t.Fatalf("count = %d", r.Count)
	}
	if r.AverageRating != 4.5 {
		t.Fatalf("rating = %v", r.AverageRating)
	}
	if len(r.Comments) != 1 {
		t.Fatalf("comments = %v", r.Comments)
	}
}

package fetcher

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"rent_bot/internal/model"
)

// Seen reports whether a listing ID was already processed.
type Seen interface {
	Has(id string) bool
}

// Page is the extraction result of one search result page.
type Page struct {
	// Listings holds the cards not present in the seen set, in page order.
	Listings []model.Listing
	// HasNext is true when the page links to a following result page.
	HasNext bool
}

const (
	cardSelector     = `div[data-cy="l-card"]`
	nextPageSelector = `[data-testid="pagination-forward"]`
	unknownPlace     = "Невідомо"
)

// cardField describes how to read one card field and what to show when it is missing.
type cardField struct {
	selectors []string
	fallback  string
}

// Field fallbacks. A missing field never drops the card; only a missing link does.
var (
	titleField    = cardField{selectors: []string{"h6", "h4", `[data-cy="ad-card-title"]`}, fallback: "Без назви"}
	priceField    = cardField{selectors: []string{`p[data-testid="ad-price"]`, `[data-testid="ad-price"]`}, fallback: "Ціна не вказана"}
	locationField = cardField{selectors: []string{`p[data-testid="location-date"]`}, fallback: ""}
)

func (f cardField) read(card *goquery.Selection) string {
	for _, sel := range f.selectors {
		if text := strings.TrimSpace(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return f.fallback
}

// Extract parses a result page and returns the listings not yet in seen.
// base resolves relative card links.
func Extract(body []byte, base *url.URL, seen Seen) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	var page Page
	if href, ok := doc.Find(nextPageSelector).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		page.HasNext = true
	}

	onPage := make(map[string]struct{})
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		link, ok := CanonicalLink(base, href)
		if !ok {
			return
		}
		if seen.Has(link) {
			return
		}
		if _, dup := onPage[link]; dup {
			return
		}
		onPage[link] = struct{}{}

		city, district := splitLocation(locationField.read(card))
		page.Listings = append(page.Listings, model.Listing{
			ID:       link,
			Title:    titleField.read(card),
			Price:    priceField.read(card),
			City:     city,
			District: district,
			Link:     link,
		})
	})

	return page, nil
}

// CanonicalLink resolves href against base and strips the query string and fragment.
func CanonicalLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}

// splitLocation turns "Київ, Печерський - Сьогодні о 12:30" into city and district.
func splitLocation(text string) (string, string) {
	if i := strings.Index(text, " - "); i >= 0 {
		text = text[:i]
	}
	city, district := unknownPlace, unknownPlace
	parts := strings.Split(text, ",")
	if c := strings.TrimSpace(parts[0]); c != "" {
		city = c
	}
	if len(parts) > 1 {
		if d := strings.TrimSpace(parts[1]); d != "" {
			district = d
		}
	}
	return city, district
}

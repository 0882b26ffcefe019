package fetcher

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rent_bot/internal/model"
)

type seenSet map[string]bool

func (s seenSet) Has(id string) bool { return s[id] }

var origin = &url.URL{Scheme: "https", Host: "www.olx.ua", Path: "/"}

func TestExtractPartialCards(t *testing.T) {
	body := loadFixture(t, "partial.html")

	page, err := Extract([]byte(body), origin, seenSet{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := Page{
		Listings: []model.Listing{
			{
				ID:       "https://www.olx.ua/d/uk/obyavlenie/full-IDfull.html",
				Title:    "Двокімнатна квартира",
				Price:    "18 000 грн.",
				City:     "Київ",
				District: "Шевченківський",
				Link:     "https://www.olx.ua/d/uk/obyavlenie/full-IDfull.html",
			},
			{
				ID:       "https://www.olx.ua/d/uk/obyavlenie/bare-IDbare.html",
				Title:    "Без назви",
				Price:    "Ціна не вказана",
				City:     "Невідомо",
				District: "Невідомо",
				Link:     "https://www.olx.ua/d/uk/obyavlenie/bare-IDbare.html",
			},
			{
				ID:       "https://www.olx.ua/d/uk/obyavlenie/rel-IDrel.html",
				Title:    "Квартира без району",
				Price:    "Ціна не вказана",
				City:     "Ірпінь",
				District: "Невідомо",
				Link:     "https://www.olx.ua/d/uk/obyavlenie/rel-IDrel.html",
			},
		},
		HasNext: false,
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSkipsSeen(t *testing.T) {
	body := loadFixture(t, "page1.html")

	seen := seenSet{
		"https://www.olx.ua/d/uk/obyavlenie/kvartira-p1-01-IDp101.html": true,
		"https://www.olx.ua/d/uk/obyavlenie/kvartira-p1-05-IDp105.html": true,
	}
	page, err := Extract([]byte(body), origin, seen)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff(8, len(page.Listings)); diff != "" {
		t.Errorf("listing count mismatch (-want +got):\n%s", diff)
	}
	for _, l := range page.Listings {
		if seen[l.ID] {
			t.Errorf("seen listing %s offered again", l.ID)
		}
	}
	if !page.HasNext {
		t.Error("expected next page marker to be detected")
	}
}

func TestExtractHasNextIndependentOfNewListings(t *testing.T) {
	body := loadFixture(t, "page1.html")

	all := seenSet{}
	first, err := Extract([]byte(body), origin, all)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, l := range first.Listings {
		all[l.ID] = true
	}

	again, err := Extract([]byte(body), origin, all)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(again.Listings) != 0 {
		t.Errorf("expected no unseen listings, got %d", len(again.Listings))
	}
	if !again.HasNext {
		t.Error("HasNext must not depend on the number of new listings")
	}
}

func TestExtractEmptyPage(t *testing.T) {
	page, err := Extract([]byte(loadFixture(t, "empty.html")), origin, seenSet{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff(Page{}, page); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}
}

func TestCanonicalLink(t *testing.T) {
	tests := []struct {
		name   string
		href   string
		want   string
		wantOK bool
	}{
		{
			name:   "relative link",
			href:   "/d/uk/obyavlenie/a-IDa.html",
			want:   "https://www.olx.ua/d/uk/obyavlenie/a-IDa.html",
			wantOK: true,
		},
		{
			name:   "query and fragment stripped",
			href:   "https://www.olx.ua/d/uk/obyavlenie/a-IDa.html?reason=ip_matched#gallery",
			want:   "https://www.olx.ua/d/uk/obyavlenie/a-IDa.html",
			wantOK: true,
		},
		{
			name:   "protocol relative",
			href:   "//www.olx.ua/d/uk/obyavlenie/a-IDa.html",
			want:   "https://www.olx.ua/d/uk/obyavlenie/a-IDa.html",
			wantOK: true,
		},
		{name: "empty", href: "  ", wantOK: false},
		{name: "javascript", href: "javascript:void(0)", wantOK: false},
		{name: "malformed", href: "http://[::1", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalLink(origin, tt.href)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CanonicalLink mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in           string
		wantCity     string
		wantDistrict string
	}{
		{in: "Київ, Дарницький - Сьогодні о 10:00", wantCity: "Київ", wantDistrict: "Дарницький"},
		{in: "Бровари - 12 травня 2025 р.", wantCity: "Бровари", wantDistrict: "Невідомо"},
		{in: "", wantCity: "Невідомо", wantDistrict: "Невідомо"},
		{in: "Київ, ", wantCity: "Київ", wantDistrict: "Невідомо"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			city, district := splitLocation(tt.in)
			if city != tt.wantCity || district != tt.wantDistrict {
				t.Errorf("splitLocation(%q) = %q, %q; want %q, %q", tt.in, city, district, tt.wantCity, tt.wantDistrict)
			}
		})
	}
}

func TestExtractPageWithDetectionScript(t *testing.T) {
	page, err := Extract([]byte(loadFixture(t, "page1_jsd.html")), origin, seenSet{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff(10, len(page.Listings)); diff != "" {
		t.Errorf("listing count mismatch (-want +got):\n%s", diff)
	}
}

// Package filter re-checks extracted listings against the criteria they were searched with.
//
// The search query is the primary filter. This package catches results the
// site returned although they violate a constraint that is visible on the
// result card. Constraints that cannot be read from the card always pass.
package filter

import (
	"strconv"
	"strings"
	"unicode"

	"rent_bot/internal/model"
	"rent_bot/internal/search"
)

// Reasons reported for rejected listings.
const (
	ReasonDistrict = "district"
	ReasonMinPrice = "min_price"
	ReasonMaxPrice = "max_price"
)

type rule struct {
	reason string
	match  func(l model.Listing, c model.Criteria) bool
}

var rules = []rule{
	{ReasonDistrict, matchDistrict},
	{ReasonMinPrice, func(l model.Listing, c model.Criteria) bool {
		p, ok := ParsePrice(l.Price)
		return !ok || c.MinPrice <= 0 || p >= c.MinPrice
	}},
	{ReasonMaxPrice, func(l model.Listing, c model.Criteria) bool {
		p, ok := ParsePrice(l.Price)
		return !ok || c.MaxPrice <= 0 || p <= c.MaxPrice
	}},
}

// Match checks whether a listing is consistent with c. When it is not, the
// first violated constraint is returned as the reason.
func Match(l model.Listing, c model.Criteria) (bool, string) {
	for _, r := range rules {
		if !r.match(l, c) {
			return false, r.reason
		}
	}
	return true, ""
}

func matchDistrict(l model.Listing, c model.Criteria) bool {
	if c.District == "" {
		return true
	}
	want, ok := search.ResolveDistrict(c.District)
	if !ok {
		return true
	}
	got, ok := search.ResolveDistrict(l.District)
	if !ok {
		// Free-form or placeholder location text.
		return true
	}
	return got == want
}

// ParsePrice reads a hryvnia amount such as "12 500 грн." from card text.
// Prices in other currencies and "negotiable" labels are reported as unknown.
func ParsePrice(text string) (int, bool) {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "грн") {
		return 0, false
	}

	var digits strings.Builder
	for _, r := range lower {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case unicode.IsSpace(r):
		default:
			if digits.Len() > 0 {
				return atoi(digits.String())
			}
		}
	}
	return atoi(digits.String())
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

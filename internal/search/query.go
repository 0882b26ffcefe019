// Package search turns filter criteria into source-site search URLs.
package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"rent_bot/internal/model"
)

// DefaultBaseURL is the long-term apartment rental section of the source site.
const DefaultBaseURL = "https://www.olx.ua/uk/nedvizhimost/kvartiry/dolgosrochnaya-arenda-kvartir/"

// Query is a built search URL together with the constraints that could not be applied.
type Query struct {
	URL      string
	Warnings []string
}

// Build returns the search URL for criteria c and the 1-based page number.
// Build performs no I/O; unresolvable districts are reported in Query.Warnings.
func Build(baseURL string, c model.Criteria, page int) Query {
	var q Query

	path := baseURL
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	city := strings.ToLower(strings.TrimSpace(c.City))
	switch {
	case defaultCityNames[city]:
		path += defaultCitySegment + "/"
	case city != "":
		if slug := Slugify(city); slug != "" {
			path += slug + "/"
		} else {
			q.Warnings = append(q.Warnings, fmt.Sprintf("city %q has no URL slug", c.City))
		}
	}

	params := url.Values{}
	if c.District != "" {
		if id, ok := ResolveDistrict(c.District); ok {
			params.Set("search[district_id]", id)
		} else {
			q.Warnings = append(q.Warnings, fmt.Sprintf("unknown district %q ignored", c.District))
		}
	}

	params.Set("currency", "UAH")
	setPositive(params, "search[filter_float_price:from]", c.MinPrice)
	setPositive(params, "search[filter_float_price:to]", c.MaxPrice)
	setPositive(params, "search[filter_float_floor:to]", c.MaxFloor)
	setPositive(params, "search[filter_float_total_area:from]", c.MinArea)

	idx := 0
	for _, p := range c.PetsAllowed {
		v, ok := ResolvePet(p)
		if !ok {
			continue
		}
		params.Set(fmt.Sprintf("search[filter_enum_pets][%d]", idx), v)
		idx++
	}

	if kw := joinKeywords(c.Keywords); kw != "" {
		params.Set("search[keywords]", kw)
	}

	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}

	q.URL = path + "?" + params.Encode()
	return q
}

func setPositive(params url.Values, key string, v int) {
	if v > 0 {
		params.Set(key, strconv.Itoa(v))
	}
}

func joinKeywords(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, " ")
}

// Package model defines the domain types used across the application.
package model

import (
	"slices"
	"time"
)

// DefaultCity is the city new subscribers search in.
const DefaultCity = "київ"

// Listing is one rental ad extracted from a result page.
// ID is the canonical detail-page URL; two listings with the same ID are the same ad.
type Listing struct {
	ID       string
	Title    string
	Price    string
	City     string
	District string
	Link     string
}

// Pet is a pet-tolerance category.
type Pet string

// Supported pet categories.
const (
	PetCat   Pet = "cat"
	PetDog   Pet = "dog"
	PetOther Pet = "other"
)

// Criteria holds one subscriber's search filter.
// Zero or empty values leave the corresponding constraint off.
type Criteria struct {
	City        string   `json:"city"`
	District    string   `json:"district"`
	MinPrice    int      `json:"min_price"`
	MaxPrice    int      `json:"max_price"`
	Keywords    []string `json:"keywords"`
	MaxFloor    int      `json:"max_floor"`
	MinArea     int      `json:"min_area"`
	PetsAllowed []Pet    `json:"pets_allowed"`
}

// DefaultCriteria returns the criteria assigned on subscription.
func DefaultCriteria() Criteria {
	return Criteria{City: DefaultCity}
}

// Clone returns a deep copy of c.
func (c Criteria) Clone() Criteria {
	c.Keywords = slices.Clone(c.Keywords)
	c.PetsAllowed = slices.Clone(c.PetsAllowed)
	return c
}

// AllowPet adds p to the allowed set, keeping insertion order.
func (c *Criteria) AllowPet(p Pet) {
	if !slices.Contains(c.PetsAllowed, p) {
		c.PetsAllowed = append(c.PetsAllowed, p)
	}
}

// Subscriber is a chat receiving listing notifications.
type Subscriber struct {
	ChatID    int64
	CreatedAt time.Time
}

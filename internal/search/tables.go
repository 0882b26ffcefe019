package search

import (
	"slices"
	"strings"

	"rent_bot/internal/model"
)

// districtIDs maps Kyiv district names to source-site district identifiers.
var districtIDs = map[string]string{
	"голосіївський":  "1",
	"дарницький":     "3",
	"деснянський":    "4",
	"дніпровський":   "5",
	"оболонський":    "6",
	"печерський":     "7",
	"подільський":    "8",
	"святошинський":  "9",
	"солом'янський":  "10",
	"шевченківський": "11",
}

// petValues maps pet categories to the source-site enum values.
var petValues = map[model.Pet]string{
	model.PetCat:   "yes_cat",
	model.PetDog:   "yes_dog",
	model.PetOther: "yes_other",
}

// petAliases accepts the Ukrainian keywords older records were stored with.
var petAliases = map[string]model.Pet{
	"кіт":          model.PetCat,
	"коти":         model.PetCat,
	"собака":       model.PetDog,
	"собаки":       model.PetDog,
	"інші":         model.PetOther,
	"інші тварини": model.PetOther,
}

// defaultCityNames resolve to the fixed default-city path segment.
var defaultCityNames = map[string]bool{
	"київ": true,
	"kyiv": true,
	"kiev": true,
	"киев": true,
}

const defaultCitySegment = "kiev"

// citySlugs overrides transliteration for cities the site names differently.
var citySlugs = map[string]string{
	"львів":     "lvov",
	"одеса":     "odessa",
	"харків":    "harkov",
	"дніпро":    "dnepr",
	"запоріжжя": "zaporozhe",
	"вінниця":   "vinnitsa",
}

// NormalizeDistrict lowercases a district name and unifies apostrophes.
func NormalizeDistrict(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("’", "'", "ʼ", "'", "`", "'").Replace(name)
}

// ResolveDistrict returns the site identifier of a district name.
func ResolveDistrict(name string) (string, bool) {
	id, ok := districtIDs[NormalizeDistrict(name)]
	return id, ok
}

// Districts returns the known district names in alphabetical order.
func Districts() []string {
	names := make([]string, 0, len(districtIDs))
	for name := range districtIDs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolvePet maps a pet category or one of its Ukrainian aliases to the site enum value.
func ResolvePet(p model.Pet) (string, bool) {
	key := model.Pet(strings.ToLower(strings.TrimSpace(string(p))))
	if alias, ok := petAliases[string(key)]; ok {
		key = alias
	}
	v, ok := petValues[key]
	return v, ok
}

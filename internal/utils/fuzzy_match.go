package utils

import (
	"strings"

	"rentalsearch/internal/model"
)

// housingAliases maps free-text building words to normalized housing types.
// Order matters: more specific phrases are checked first.
var housingAliases = []struct {
	alias string
	kind  model.HousingType
}{
	{"condominium", model.HousingCondo},
	{"condo", model.HousingCondo},
	{"townhouse", model.HousingHouse},
	{"town house", model.HousingHouse},
	{"townhome", model.HousingHouse},
	{"single family", model.HousingHouse},
	{"single-family", model.HousingHouse},
	{"duplex", model.HousingHouse},
	{"bungalow", model.HousingHouse},
	{"cottage", model.HousingHouse},
	{"house", model.HousingHouse},
	{"home", model.HousingHouse},
	{"apartment", model.HousingApartment},
	{"apt", model.HousingApartment},
	{"flat", model.HousingApartment},
	{"studio", model.HousingApartment},
	{"loft", model.HousingApartment},
	{"unit", model.HousingApartment},
}

// NormalizeHousingType maps a free-text housing description to a housing type.
// Returns HousingUnknown and false when nothing recognizable is found.
func NormalizeHousingType(raw string) (model.HousingType, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return model.HousingUnknown, false
	}

	// Exact match
	if t := model.HousingType(lower); t.Valid() && t != model.HousingUnknown {
		return t, true
	}

	// Contains match on aliases
	for _, a := range housingAliases {
		if strings.Contains(lower, a.alias) {
			return a.kind, true
		}
	}

	return model.HousingUnknown, false
}

// MatchHousingType reports whether a listing type satisfies a requested type.
// Unknown listing types always match.
func MatchHousingType(listingType, requested model.HousingType) bool {
	if listingType == "" || listingType == model.HousingUnknown {
		return true
	}
	return strings.EqualFold(string(listingType), string(requested))
}

// DisplayHousingType renders a housing type for rationale strings ("Apartment")
func DisplayHousingType(t model.HousingType) string {
	s := string(t)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

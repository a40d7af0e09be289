package service

import (
	"rentalsearch/internal/metrics"
	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// Filter rule names, used for rejection stats and metric labels
const (
	ruleZeroPrice   = "zero_price"
	rulePrice       = "price"
	ruleBedrooms    = "bedrooms"
	ruleBathrooms   = "bathrooms"
	ruleHousingType = "housing_type"
	rulePrivateRoom = "private_room"
	rulePrivateBath = "private_bath"
	ruleSmoking     = "smoking"
)

// FilterStats counts rejections per rule. A listing is counted under the first rule it fails.
type FilterStats struct {
	Input      int            `json:"input"`
	Passed     int            `json:"passed"`
	Rejections map[string]int `json:"rejections"`
}

// Filter applies spec to listings and returns the passing listings in input order.
// It never mutates listings and performs no location matching.
func Filter(listings []model.Listing, spec model.FilterSpec) []model.Listing {
	out, _ := FilterWithStats(listings, spec)
	return out
}

// FilterWithStats is Filter plus per-rule rejection counts
func FilterWithStats(listings []model.Listing, spec model.FilterSpec) ([]model.Listing, FilterStats) {
	stats := FilterStats{
		Input:      len(listings),
		Rejections: make(map[string]int),
	}
	out := make([]model.Listing, 0, len(listings))

	for _, l := range listings {
		if rule := rejectRule(l, spec); rule != "" {
			stats.Rejections[rule]++
			continue
		}
		out = append(out, l)
	}
	stats.Passed = len(out)

	for rule, n := range stats.Rejections {
		metrics.FilterRejectionsTotal.WithLabelValues(rule).Add(float64(n))
	}
	return out, stats
}

// rejectRule returns the first rule l fails, or "" when it passes
func rejectRule(l model.Listing, spec model.FilterSpec) string {
	// Zero price is invalid data, excluded before any bound.
	if l.Price == 0 {
		return ruleZeroPrice
	}

	if spec.MinPrice != nil && l.Price > 0 && l.Price < *spec.MinPrice {
		return rulePrice
	}
	if spec.MaxPrice != nil && l.Price > 0 && l.Price > *spec.MaxPrice {
		return rulePrice
	}

	// A count of 0 means unknown, never "studio".
	if !withinCount(l.Bedrooms, spec.MinBedrooms, spec.MaxBedrooms) {
		return ruleBedrooms
	}
	if !withinCount(l.Bathrooms, spec.MinBathrooms, spec.MaxBathrooms) {
		return ruleBathrooms
	}

	if spec.HousingType != nil && !utils.MatchHousingType(l.HousingType, *spec.HousingType) {
		return ruleHousingType
	}

	if spec.PrivateRoom != nil && l.PrivateRoom != *spec.PrivateRoom {
		return rulePrivateRoom
	}
	if spec.PrivateBath != nil && l.PrivateBath != *spec.PrivateBath {
		return rulePrivateBath
	}
	if spec.Smoking != nil && l.Smoking != *spec.Smoking {
		return ruleSmoking
	}

	return ""
}

func withinCount(count int, lo, hi *int) bool {
	if count <= 0 {
		return true
	}
	if lo != nil && count < *lo {
		return false
	}
	if hi != nil && count > *hi {
		return false
	}
	return true
}

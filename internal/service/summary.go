package service

import (
	"strings"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// Deterministic rationale labels
const (
	LabelWithinBudget   = "Within budget"
	LabelBedroomsFit    = "Bedroom count fits"
	LabelBathroomsFit   = "Bathroom count fits"
	LabelPrivateRoom    = "Private room"
	LabelPrivateBath    = "Private bathroom"
	LabelSmokingAllowed = "Smoking allowed"
	LabelNonSmoking     = "Non-smoking"
	LabelBasicCriteria  = "Meets basic criteria"
)

// DefaultDeterministicCap bounds the deterministic path output
const DefaultDeterministicCap = 10

// Summarize turns filter-passing listings into 100% matches with filter-derived rationales.
// It never calls the reasoner.
func Summarize(listings []model.Listing, spec model.FilterSpec, limit int) []model.MatchResult {
	if limit <= 0 {
		limit = DefaultDeterministicCap
	}
	if len(listings) > limit {
		listings = listings[:limit]
	}

	results := make([]model.MatchResult, 0, len(listings))
	for _, l := range listings {
		results = append(results, model.MatchResult{
			Listing:         l,
			MatchPercentage: 100,
			Rationale:       deterministicRationale(l, spec),
		})
	}
	return results
}

// deterministicRationale lists, in a fixed order, the filters the listing actually satisfies
func deterministicRationale(l model.Listing, spec model.FilterSpec) string {
	var labels []string

	if (spec.MinPrice != nil || spec.MaxPrice != nil) && l.Price > 0 &&
		(spec.MinPrice == nil || l.Price >= *spec.MinPrice) &&
		(spec.MaxPrice == nil || l.Price <= *spec.MaxPrice) {
		labels = append(labels, LabelWithinBudget)
	}

	if spec.HousingType != nil && strings.EqualFold(string(l.HousingType), string(*spec.HousingType)) {
		labels = append(labels, utils.DisplayHousingType(*spec.HousingType)+" as requested")
	}

	if (spec.MinBedrooms != nil || spec.MaxBedrooms != nil) && l.Bedrooms > 0 {
		labels = append(labels, LabelBedroomsFit)
	}
	if (spec.MinBathrooms != nil || spec.MaxBathrooms != nil) && l.Bathrooms > 0 {
		labels = append(labels, LabelBathroomsFit)
	}

	if spec.PrivateRoom != nil && *spec.PrivateRoom && l.PrivateRoom {
		labels = append(labels, LabelPrivateRoom)
	}
	if spec.PrivateBath != nil && *spec.PrivateBath && l.PrivateBath {
		labels = append(labels, LabelPrivateBath)
	}

	if spec.Smoking != nil && *spec.Smoking == l.Smoking {
		if l.Smoking {
			labels = append(labels, LabelSmokingAllowed)
		} else {
			labels = append(labels, LabelNonSmoking)
		}
	}

	if len(labels) == 0 {
		return LabelBasicCriteria
	}
	return strings.Join(labels, ", ")
}

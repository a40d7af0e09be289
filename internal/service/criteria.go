package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// CriteriaExtractor turns free text into deterministic filters and a residual-requirement signal.
// Both operations fail soft: a broken reasoning call never reaches the caller.
type CriteriaExtractor struct {
	reasoner Reasoner
	timeout  time.Duration
	logger   *zap.Logger
}

// NewCriteriaExtractor creates a criteria extractor
func NewCriteriaExtractor(reasoner Reasoner, timeout time.Duration, logger *zap.Logger) *CriteriaExtractor {
	return &CriteriaExtractor{
		reasoner: reasoner,
		timeout:  timeout,
		logger:   logger,
	}
}

// ExtractFilters returns the filters stated in query. Any failure yields an empty spec.
func (e *CriteriaExtractor) ExtractFilters(ctx context.Context, query string) model.FilterSpec {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.FilterSpec{}
	}

	text, err := callReasoner(ctx, e.reasoner, purposeFilters, buildFilterPrompt(query), e.timeout, e.logger)
	if err != nil {
		return model.FilterSpec{}
	}

	var raw map[string]any
	if err := utils.ParseAIObject(text, &raw); err != nil {
		e.logger.Warn("Filter reply carried no usable JSON",
			zap.String("reply", utils.Truncate(text, 200)),
			zap.Error(err))
		return model.FilterSpec{}
	}

	spec := specFromRaw(raw)
	e.logger.Debug("Extracted filters", zap.Any("filters", spec))
	return spec
}

// HasResidualRequirement reports whether query needs semantic scoring.
// Uncertainty resolves to false so the cheaper deterministic path wins.
func (e *CriteriaExtractor) HasResidualRequirement(ctx context.Context, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	text, err := callReasoner(ctx, e.reasoner, purposeResidual, buildResidualPrompt(query), e.timeout, e.logger)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(text), "yes")
}

// specFromRaw maps a loosely typed reply onto a FilterSpec, dropping fields it cannot read
func specFromRaw(raw map[string]any) model.FilterSpec {
	var spec model.FilterSpec

	if v, ok := asFloat(raw["min_price"]); ok && v >= 0 {
		spec.MinPrice = model.Float64Ptr(v)
	}
	if v, ok := asFloat(raw["max_price"]); ok && v >= 0 {
		spec.MaxPrice = model.Float64Ptr(v)
	}
	if spec.MinPrice != nil && spec.MaxPrice != nil && *spec.MinPrice > *spec.MaxPrice {
		spec.MinPrice, spec.MaxPrice = spec.MaxPrice, spec.MinPrice
	}

	spec.MinBedrooms = asCount(raw["min_bedrooms"])
	spec.MaxBedrooms = asCount(raw["max_bedrooms"])
	spec.MinBathrooms = asCount(raw["min_bathrooms"])
	spec.MaxBathrooms = asCount(raw["max_bathrooms"])

	if s, ok := raw["housing_type"].(string); ok {
		if t, ok := utils.NormalizeHousingType(s); ok {
			spec.HousingType = model.HousingTypePtr(t)
		}
	}

	spec.PrivateRoom = asBool(raw["private_room"])
	spec.PrivateBath = asBool(raw["private_bath"])
	spec.Smoking = asBool(raw["smoking"])

	if s, ok := raw["destination"].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			spec.Destination = model.StringPtr(s)
		}
	}

	return spec
}

// asFloat reads JSON numbers and numeric strings such as "$2,000"
// normalizeOverride returns a copy of caller-supplied filters with the housing
// type normalized. An unrecognized housing type is dropped.
func normalizeOverride(f *model.FilterSpec) *model.FilterSpec {
	if f == nil || f.HousingType == nil {
		return f
	}
	out := *f
	out.HousingType = nil
	if t, ok := utils.NormalizeHousingType(string(*f.HousingType)); ok {
		out.HousingType = model.HousingTypePtr(t)
	}
	return &out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(n)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asCount(v any) *int {
	f, ok := asFloat(v)
	if !ok || f < 0 {
		return nil
	}
	return model.IntPtr(int(math.Round(f)))
}

// asBool keeps an explicit false; only a missing or unreadable value becomes nil
func asBool(v any) *bool {
	switch b := v.(type) {
	case bool:
		return model.BoolPtr(b)
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes":
			return model.BoolPtr(true)
		case "false", "no":
			return model.BoolPtr(false)
		}
	}
	return nil
}

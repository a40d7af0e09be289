package model

import "strconv"

// FilterSpec is a sparse set of deterministic constraints.
// A nil field means "no constraint"; a non-nil false or zero is a real constraint.
type FilterSpec struct {
	MinPrice     *float64     `json:"min_price,omitempty"`
	MaxPrice     *float64     `json:"max_price,omitempty"`
	MinBedrooms  *int         `json:"min_bedrooms,omitempty"`
	MaxBedrooms  *int         `json:"max_bedrooms,omitempty"`
	MinBathrooms *int         `json:"min_bathrooms,omitempty"`
	MaxBathrooms *int         `json:"max_bathrooms,omitempty"`
	HousingType  *HousingType `json:"housing_type,omitempty"`
	PrivateRoom  *bool        `json:"private_room,omitempty"`
	PrivateBath  *bool        `json:"private_bath,omitempty"`
	Smoking      *bool        `json:"smoking,omitempty"`

	// Destination is a commute target (work, school) mentioned in the query.
	// It is never applied as a listing filter.
	Destination *string `json:"destination,omitempty"`
}

// IsEmpty reports whether the spec carries no listing constraint at all
func (f FilterSpec) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinBedrooms == nil && f.MaxBedrooms == nil &&
		f.MinBathrooms == nil && f.MaxBathrooms == nil &&
		f.HousingType == nil &&
		f.PrivateRoom == nil && f.PrivateBath == nil && f.Smoking == nil
}

// Merge returns a new spec with explicit override fields taking precedence over f
func (f FilterSpec) Merge(override *FilterSpec) FilterSpec {
	merged := f
	if override == nil {
		return merged
	}
	if override.MinPrice != nil {
		merged.MinPrice = override.MinPrice
	}
	if override.MaxPrice != nil {
		merged.MaxPrice = override.MaxPrice
	}
	if override.MinBedrooms != nil {
		merged.MinBedrooms = override.MinBedrooms
	}
	if override.MaxBedrooms != nil {
		merged.MaxBedrooms = override.MaxBedrooms
	}
	if override.MinBathrooms != nil {
		merged.MinBathrooms = override.MinBathrooms
	}
	if override.MaxBathrooms != nil {
		merged.MaxBathrooms = override.MaxBathrooms
	}
	if override.HousingType != nil {
		merged.HousingType = override.HousingType
	}
	if override.PrivateRoom != nil {
		merged.PrivateRoom = override.PrivateRoom
	}
	if override.PrivateBath != nil {
		merged.PrivateBath = override.PrivateBath
	}
	if override.Smoking != nil {
		merged.Smoking = override.Smoking
	}
	if override.Destination != nil {
		merged.Destination = override.Destination
	}
	return merged
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr returns a pointer to v
func StringPtr(v string) *string {
	return &v
}

// HousingTypePtr returns a pointer to v
func HousingTypePtr(v HousingType) *HousingType {
	return &v
}

func formatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
}

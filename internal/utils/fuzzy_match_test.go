package utils

import (
	"testing"

	"rentalsearch/internal/model"
)

func TestNormalizeHousingType(t *testing.T) {
	tests := []struct {
		input  string
		want   model.HousingType
		wantOK bool
	}{
		{"apartment", model.HousingApartment, true},
		{"Condo", model.HousingCondo, true},
		{"  HOUSE ", model.HousingHouse, true},
		{"2br apt", model.HousingApartment, true},
		{"studio flat", model.HousingApartment, true},
		{"Condominium unit", model.HousingCondo, true},
		{"townhouse", model.HousingHouse, true},
		{"unknown", model.HousingUnknown, false},
		{"castle", model.HousingUnknown, false},
		{"", model.HousingUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeHousingType(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NormalizeHousingType(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMatchHousingType(t *testing.T) {
	if !MatchHousingType(model.HousingUnknown, model.HousingCondo) {
		t.Error("unknown listing type must always match")
	}
	if !MatchHousingType("", model.HousingHouse) {
		t.Error("empty listing type must be treated as unknown")
	}
	if !MatchHousingType("Apartment", model.HousingApartment) {
		t.Error("comparison must be case-insensitive")
	}
	if MatchHousingType(model.HousingHouse, model.HousingApartment) {
		t.Error("house must not match apartment")
	}
}

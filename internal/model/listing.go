package model

import (
	"time"
)

// HousingType is the normalized building category of a listing
type HousingType string

// Housing types. HousingUnknown is the sentinel for listings whose type was not scraped.
const (
	HousingHouse     HousingType = "house"
	HousingApartment HousingType = "apartment"
	HousingCondo     HousingType = "condo"
	HousingUnknown   HousingType = "unknown"
)

// Valid reports whether t is one of the known housing types (unknown included)
func (t HousingType) Valid() bool {
	switch t {
	case HousingHouse, HousingApartment, HousingCondo, HousingUnknown:
		return true
	}
	return false
}

// Listing represents a normalized rental listing.
// Listings are immutable once loaded into the store; annotation happens on MatchResult copies.
type Listing struct {
	ID          string      `json:"id" yaml:"id" db:"listing_id"`
	Title       string      `json:"title" yaml:"title" db:"title"`
	Price       float64     `json:"price" yaml:"price" db:"price"`
	Bedrooms    int         `json:"bedrooms" yaml:"bedrooms" db:"bedrooms"`
	Bathrooms   int         `json:"bathrooms" yaml:"bathrooms" db:"bathrooms"`
	HousingType HousingType `json:"housing_type" yaml:"housing_type" db:"housing_type"`
	PrivateRoom bool        `json:"private_room" yaml:"private_room" db:"private_room"`
	PrivateBath bool        `json:"private_bath" yaml:"private_bath" db:"private_bath"`
	Smoking     bool        `json:"smoking" yaml:"smoking" db:"smoking"`
	Description string      `json:"description,omitempty" yaml:"description" db:"description"`
	Location    string      `json:"location,omitempty" yaml:"location" db:"location"`
	Latitude    *float64    `json:"latitude,omitempty" yaml:"latitude" db:"latitude"`
	Longitude   *float64    `json:"longitude,omitempty" yaml:"longitude" db:"longitude"`
	WalkScore   *int        `json:"walk_score,omitempty" yaml:"walk_score" db:"walk_score"`
	Source      string      `json:"source" yaml:"source" db:"source"`
	URL         string      `json:"url,omitempty" yaml:"url" db:"url"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether the listing carries a geocoded position
func (l Listing) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Origin returns the commute origin for the listing: "lat,lng" when geocoded, else the location text
func (l Listing) Origin() string {
	if l.HasCoordinates() {
		return formatLatLng(*l.Latitude, *l.Longitude)
	}
	return l.Location
}

// EmbeddingItem represents a single embedding with listing info
type EmbeddingItem struct {
	ListingID string    `json:"listing_id" binding:"required"`
	Embedding []float32 `json:"embedding" binding:"required"`
	Text      string    `json:"text,omitempty"` // The text used to generate embedding
}

// EmbeddingBatchRequest represents a batch embedding update request
type EmbeddingBatchRequest struct {
	Embeddings []EmbeddingItem `json:"embeddings" binding:"required"`
}

// EmbeddingBatchResponse represents the response for batch embedding update
type EmbeddingBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// FeedbackRequest represents user feedback/action
type FeedbackRequest struct {
	SearchID  string `json:"search_id" binding:"required"`
	ListingID string `json:"listing_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, contact, view_details
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

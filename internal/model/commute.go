package model

// Travel modes accepted by commute scorers
const (
	TravelDriving   = "driving"
	TravelTransit   = "transit"
	TravelWalking   = "walking"
	TravelBicycling = "bicycling"
)

// CommuteAnalysis is derived per query and never cached
type CommuteAnalysis struct {
	Origin                   string `json:"origin"`
	Destination              string `json:"destination"`
	Mode                     string `json:"mode"`
	DistanceMeters           int    `json:"distance_meters"`
	DistanceText             string `json:"distance_text"`
	DurationSeconds          int    `json:"duration_seconds"`
	DurationText             string `json:"duration_text"`
	DurationInTrafficSeconds int    `json:"duration_in_traffic_seconds"`
	DurationInTrafficText    string `json:"duration_in_traffic_text"`
	Rating                   int    `json:"rating"`
	Recommendation           string `json:"recommendation"`
	Synthetic                bool   `json:"synthetic"` // true when the routing service was unavailable
}

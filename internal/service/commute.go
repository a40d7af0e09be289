package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"rentalsearch/internal/metrics"
	"rentalsearch/internal/model"
)

// Commute rating thresholds
const (
	acceptableDistanceMeters = 50000.0
	acceptableDurationSecs   = 3600.0
	distancePenaltyStep      = 10000.0
	durationPenaltyStep      = 600.0
	maxThresholdPenalty      = 5.0
	slowSpeedKmh             = 20.0
	mediumSpeedKmh           = 30.0
)

// RateCommute scores a trip from 1 (poor) to 10 (excellent)
func RateCommute(distanceMeters, durationSeconds int) int {
	score := 10.0
	d := float64(distanceMeters)
	t := float64(durationSeconds)

	if d > acceptableDistanceMeters {
		score -= math.Min(maxThresholdPenalty, (d-acceptableDistanceMeters)/distancePenaltyStep)
	}
	if t > acceptableDurationSecs {
		score -= math.Min(maxThresholdPenalty, (t-acceptableDurationSecs)/durationPenaltyStep)
	}

	if t > 0 {
		speed := (d / 1000) / (t / 3600)
		if speed < slowSpeedKmh {
			score -= 2
		} else if speed < mediumSpeedKmh {
			score--
		}
	}

	rating := int(math.Round(score))
	return max(1, min(10, rating))
}

// Recommendation describes a rating in words
func Recommendation(rating int) string {
	switch {
	case rating >= 8:
		return "Excellent commute"
	case rating >= 6:
		return "Good commute"
	case rating >= 4:
		return "Fair commute, consider alternatives"
	default:
		return "Long commute, not recommended"
	}
}

// CommuteScorer analyzes one origin/destination trip
type CommuteScorer interface {
	Analyze(ctx context.Context, origin, destination, mode string) (*model.CommuteAnalysis, error)
}

// NormalizeTravelMode maps free text to a supported travel mode, defaulting to fallback
func NormalizeTravelMode(mode, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case model.TravelDriving, "drive", "car":
		return model.TravelDriving
	case model.TravelTransit, "public transit", "bus", "train", "subway":
		return model.TravelTransit
	case model.TravelWalking, "walk", "foot":
		return model.TravelWalking
	case model.TravelBicycling, "bike", "bicycle", "cycling":
		return model.TravelBicycling
	}
	if fallback == "" {
		return model.TravelTransit
	}
	return fallback
}

// Assumed door-to-door speeds in km/h for synthetic estimates
var syntheticSpeedKmh = map[string]float64{
	model.TravelDriving:   35,
	model.TravelTransit:   22,
	model.TravelWalking:   5,
	model.TravelBicycling: 15,
}

// detourFactor turns straight-line distance into an approximate route distance
const detourFactor = 1.3

// SyntheticScorer estimates a commute without a routing service.
// It uses straight-line distance when both ends are "lat,lng" pairs and a fixed distance otherwise.
type SyntheticScorer struct {
	fallbackMeters int
}

// NewSyntheticScorer creates an estimator; fallbackMeters applies when positions are unknown
func NewSyntheticScorer(fallbackMeters int) *SyntheticScorer {
	if fallbackMeters <= 0 {
		fallbackMeters = 15000
	}
	return &SyntheticScorer{fallbackMeters: fallbackMeters}
}

// Analyze never fails
func (s *SyntheticScorer) Analyze(_ context.Context, origin, destination, mode string) (*model.CommuteAnalysis, error) {
	mode = NormalizeTravelMode(mode, model.TravelTransit)

	meters := float64(s.fallbackMeters)
	if oLat, oLng, ok := parseLatLng(origin); ok {
		if dLat, dLng, ok := parseLatLng(destination); ok {
			meters = haversineMeters(oLat, oLng, dLat, dLng) * detourFactor
		}
	}

	seconds := meters / 1000 / syntheticSpeedKmh[mode] * 3600
	distance := int(math.Round(meters))
	duration := int(math.Round(seconds))
	rating := RateCommute(distance, duration)

	return &model.CommuteAnalysis{
		Origin:                   origin,
		Destination:              destination,
		Mode:                     mode,
		DistanceMeters:           distance,
		DistanceText:             formatDistance(distance),
		DurationSeconds:          duration,
		DurationText:             formatDuration(duration),
		DurationInTrafficSeconds: duration,
		DurationInTrafficText:    formatDuration(duration),
		Rating:                   rating,
		Recommendation:           "Estimated: " + Recommendation(rating),
		Synthetic:                true,
	}, nil
}

// FallbackScorer asks the primary scorer and substitutes a synthetic estimate on failure
type FallbackScorer struct {
	primary   CommuteScorer
	synthetic *SyntheticScorer
	logger    *zap.Logger
}

// NewFallbackScorer creates a fallback chain. primary may be nil.
func NewFallbackScorer(primary CommuteScorer, synthetic *SyntheticScorer, logger *zap.Logger) *FallbackScorer {
	return &FallbackScorer{primary: primary, synthetic: synthetic, logger: logger}
}

// Analyze always returns an analysis; synthetic ones are flagged
func (f *FallbackScorer) Analyze(ctx context.Context, origin, destination, mode string) (*model.CommuteAnalysis, error) {
	if f.primary != nil {
		analysis, err := f.primary.Analyze(ctx, origin, destination, mode)
		if err == nil {
			return analysis, nil
		}
		f.logger.Warn("Commute routing failed, using estimate",
			zap.String("origin", origin),
			zap.String("destination", destination),
			zap.Error(err))
	}

	metrics.CommuteFallbackTotal.Inc()
	return f.synthetic.Analyze(ctx, origin, destination, mode)
}

// DistanceMatrixScorer queries a Distance Matrix style routing API
type DistanceMatrixScorer struct {
	client      *http.Client
	apiBase     string
	apiKey      string
	defaultMode string
	timeout     time.Duration
}

// NewDistanceMatrixScorer creates a routing client with a per-call timeout
func NewDistanceMatrixScorer(apiBase, apiKey, defaultMode string, timeout time.Duration) *DistanceMatrixScorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DistanceMatrixScorer{
		client:      &http.Client{},
		apiBase:     apiBase,
		apiKey:      apiKey,
		defaultMode: NormalizeTravelMode(defaultMode, model.TravelTransit),
		timeout:     timeout,
	}
}

type matrixValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []struct {
			Status            string       `json:"status"`
			Distance          matrixValue  `json:"distance"`
			Duration          matrixValue  `json:"duration"`
			DurationInTraffic *matrixValue `json:"duration_in_traffic"`
		} `json:"elements"`
	} `json:"rows"`
}

// Analyze performs one routing request
func (d *DistanceMatrixScorer) Analyze(ctx context.Context, origin, destination, mode string) (*model.CommuteAnalysis, error) {
	if d.apiKey == "" {
		return nil, ErrCommuteUnavailable
	}
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("origin and destination are required: %w", ErrCommuteUnavailable)
	}
	mode = NormalizeTravelMode(mode, d.defaultMode)

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", mode)
	params.Set("key", d.apiKey)
	if mode == model.TravelDriving {
		params.Set("departure_time", "now")
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, d.apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create routing request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing API returned status %d: %w", resp.StatusCode, ErrCommuteUnavailable)
	}

	var body matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode routing response: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("routing API status %s %s: %w", body.Status, body.ErrorMessage, ErrCommuteUnavailable)
	}
	if len(body.Rows) == 0 || len(body.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("routing API returned no elements: %w", ErrCommuteUnavailable)
	}

	el := body.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("route element status %s: %w", el.Status, ErrCommuteUnavailable)
	}

	distance := int(el.Distance.Value)
	duration := int(el.Duration.Value)
	traffic := el.Duration
	if el.DurationInTraffic != nil {
		traffic = *el.DurationInTraffic
	}
	rating := RateCommute(distance, duration)

	return &model.CommuteAnalysis{
		Origin:                   origin,
		Destination:              destination,
		Mode:                     mode,
		DistanceMeters:           distance,
		DistanceText:             el.Distance.Text,
		DurationSeconds:          duration,
		DurationText:             el.Duration.Text,
		DurationInTrafficSeconds: int(traffic.Value),
		DurationInTrafficText:    traffic.Text,
		Rating:                   rating,
		Recommendation:           Recommendation(rating),
	}, nil
}

const earthRadiusMeters = 6371000.0

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

// parseLatLng reads "lat,lng"
func parseLatLng(s string) (float64, float64, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

func formatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

func formatDuration(seconds int) string {
	minutes := int(math.Round(float64(seconds) / 60))
	if minutes < 60 {
		return fmt.Sprintf("%d mins", minutes)
	}
	return fmt.Sprintf("%d hours %d mins", minutes/60, minutes%60)
}

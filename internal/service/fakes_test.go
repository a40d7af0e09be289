package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"rentalsearch/internal/model"
)

var errFakeReasoner = errors.New("fake reasoner failure")

// fakeReasoner answers by prompt kind. A nil handler fails the call.
type fakeReasoner struct {
	filters  func(prompt string) (string, error)
	residual func(prompt string) (string, error)
	score    func(prompt string) (string, error)
	intent   func(prompt string) (string, error)

	calls atomic.Int32
	mu    sync.Mutex
	seen  []string
}

func (f *fakeReasoner) Classify(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, prompt)
	f.mu.Unlock()

	var handler func(string) (string, error)
	switch {
	case strings.HasPrefix(prompt, "Extract structured rental search filters"):
		handler = f.filters
	case strings.HasPrefix(prompt, "A rental search query may contain"):
		handler = f.residual
	case strings.HasPrefix(prompt, "Rate how well each rental listing"):
		handler = f.score
	case strings.HasPrefix(prompt, "Classify the user's request"):
		handler = f.intent
	}
	if handler == nil {
		return "", errFakeReasoner
	}
	return handler(prompt)
}

func reply(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

func fail() func(string) (string, error) {
	return func(string) (string, error) { return "", errFakeReasoner }
}

var promptListingLine = regexp.MustCompile(`(?m)^(\d+)\. (.+)$`)

// scoreByTitle replies with a score for every listing in the group whose title is in scores
func scoreByTitle(scores map[string]int) func(string) (string, error) {
	return func(prompt string) (string, error) {
		type entry struct {
			Index  int    `json:"index"`
			Score  int    `json:"score"`
			Reason string `json:"reason"`
		}
		entries := []entry{}
		for _, m := range promptListingLine.FindAllStringSubmatch(prompt, -1) {
			idx, _ := strconv.Atoi(m[1])
			if score, ok := scores[m[2]]; ok {
				entries = append(entries, entry{Index: idx, Score: score, Reason: "fits " + m[2]})
			}
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return "", err
		}
		return "Here you go:\n" + string(data), nil
	}
}

func listing(id string, price float64, opts ...func(*model.Listing)) model.Listing {
	l := model.Listing{
		ID:          id,
		Title:       "Listing " + id,
		Price:       price,
		HousingType: model.HousingApartment,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func withBeds(n int) func(*model.Listing) {
	return func(l *model.Listing) { l.Bedrooms = n }
}

func withBaths(n int) func(*model.Listing) {
	return func(l *model.Listing) { l.Bathrooms = n }
}

func withType(t model.HousingType) func(*model.Listing) {
	return func(l *model.Listing) { l.HousingType = t }
}

func withPrivateRoom(v bool) func(*model.Listing) {
	return func(l *model.Listing) { l.PrivateRoom = v }
}

func withSmoking(v bool) func(*model.Listing) {
	return func(l *model.Listing) { l.Smoking = v }
}

func withCoords(lat, lng float64) func(*model.Listing) {
	return func(l *model.Listing) { l.Latitude, l.Longitude = &lat, &lng }
}

func withWalkScore(v int) func(*model.Listing) {
	return func(l *model.Listing) { l.WalkScore = &v }
}

func numbered(n int, price float64) []model.Listing {
	out := make([]model.Listing, n)
	for i := range out {
		out[i] = listing(fmt.Sprintf("l%02d", i), price)
	}
	return out
}

func ids(listings []model.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func resultIDs(results []model.MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Listing.ID
	}
	return out
}

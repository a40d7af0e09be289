package service

import (
	"math"
	"sort"

	"rentalsearch/internal/model"
)

// SummarizeMarket computes price statistics. Only listings with a positive price count toward prices.
func SummarizeMarket(listings []model.Listing) *model.MarketSummary {
	summary := &model.MarketSummary{
		TotalListings: len(listings),
		ByHousingType: make(map[model.HousingType]int),
	}

	var prices []float64
	var cheapest, priciest *model.Listing

	for i := range listings {
		l := listings[i]
		kind := l.HousingType
		if kind == "" {
			kind = model.HousingUnknown
		}
		summary.ByHousingType[kind]++

		if l.Price <= 0 {
			continue
		}
		prices = append(prices, l.Price)
		if cheapest == nil || l.Price < cheapest.Price {
			cheapest = &l
		}
		if priciest == nil || l.Price > priciest.Price {
			priciest = &l
		}
	}

	summary.PricedListings = len(prices)
	if len(prices) == 0 {
		return summary
	}

	var total float64
	for _, p := range prices {
		total += p
	}
	sort.Float64s(prices)

	summary.AveragePrice = round2(total / float64(len(prices)))
	summary.MedianPrice = round2(median(prices))
	summary.MinPrice = prices[0]
	summary.MaxPrice = prices[len(prices)-1]
	summary.Cheapest = cheapest
	summary.MostExpensive = priciest
	return summary
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

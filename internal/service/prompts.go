package service

import (
	"fmt"
	"strings"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

const filterPromptTemplate = `Extract structured rental search filters from the user query.

Return ONLY a JSON object with any of these optional fields:
- "min_price", "max_price": monthly rent as a number
- "min_bedrooms", "max_bedrooms", "min_bathrooms", "max_bathrooms": integers
- "housing_type": one of "house", "apartment", "condo"
- "private_room", "private_bath", "smoking": true or false
- "destination": a work, school or other commute destination mentioned by the user

Omit any field the user did not state. Never guess. "Non-smoking" means "smoking": false.
"Under $2000" means "max_price": 2000. A destination is never the place to live.

Examples:
Query: "2 bedroom apartment under $2500 near my office at 1 Market St"
{"max_price": 2500, "min_bedrooms": 2, "max_bedrooms": 2, "housing_type": "apartment", "destination": "1 Market St"}

Query: "private room with own bathroom, no smokers"
{"private_room": true, "private_bath": true, "smoking": false}

Query: %q`

const residualPromptTemplate = `A rental search query may contain requirements that structured filters cannot express,
for example roommate personality, neighborhood feel, quietness, natural light or pet friendliness.
Structured filters cover only: price, bedroom and bathroom counts, housing type, private room,
private bathroom, smoking policy and commute destination.

Does the following query contain any requirement beyond those structured filters?
Answer with exactly "yes" or "no".

Query: %q`

const scorePromptTemplate = `Rate how well each rental listing matches the user's requirements.

User query: %q

Listings:
%s
Return ONLY a JSON array with one entry per listing you rate:
[{"index": <listing number>, "score": <0-100>, "reason": "<one short sentence>"}]
Use the listing numbers shown above. Score 60 or more only for listings that genuinely fit.`

const intentPromptTemplate = `Classify the user's request for a rental search assistant.

Intents:
- "housing_search": find listings that match housing criteria
- "commute_analysis": evaluate travel between a place and a destination
- "market_summary": rent statistics or market overview
- "combined_search": find listings and evaluate their commute to a destination

Return ONLY a JSON object:
{"intent": "<intent>", "confidence": <0.0-1.0>, "origin": "<starting place or empty>", "destination": "<destination or empty>", "travel_mode": "<driving|transit|walking|bicycling or empty>", "reasoning": "<short reason>"}

Request: %q`

func buildFilterPrompt(query string) string {
	return fmt.Sprintf(filterPromptTemplate, query)
}

func buildResidualPrompt(query string) string {
	return fmt.Sprintf(residualPromptTemplate, query)
}

func buildIntentPrompt(query string) string {
	return fmt.Sprintf(intentPromptTemplate, query)
}

// buildScorePrompt renders one group of listings numbered from 1
func buildScorePrompt(query string, group []model.Listing, descMax int) string {
	var sb strings.Builder
	for i, l := range group {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l.Title)
		fmt.Fprintf(&sb, "   Price: $%.0f/month", l.Price)
		if l.Location != "" {
			fmt.Fprintf(&sb, " | Location: %s", l.Location)
		}
		fmt.Fprintf(&sb, " | Private room: %s | Private bath: %s\n", yesNo(l.PrivateRoom), yesNo(l.PrivateBath))
		if desc := strings.TrimSpace(l.Description); desc != "" {
			fmt.Fprintf(&sb, "   Description: %s\n", utils.Truncate(desc, descMax))
		}
	}
	return fmt.Sprintf(scorePromptTemplate, query, sb.String())
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

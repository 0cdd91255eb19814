package inference

import (
	"context"
	"strings"
)

// unknownResult is the fallback for unmatched category or location
const unknownResult = "Unknown (heuristic)"

// categoryBucket maps a set of keywords to a category. Buckets are checked
// in order and the first one with any keyword present wins.
type categoryBucket struct {
	category string
	keywords []string
}

var categoryBuckets = []categoryBucket{
	{"Poetry / Writing", []string{"poetry", "poet", "shayari", "urdu"}},
	{"Fitness", []string{"fitness", "gym", "workout", "coach", "trainer"}},
	{"Travel", []string{"travel", "wanderlust", "trip", "tourism"}},
	{"Food", []string{"food", "chef", "recipe", "baking", "restaurant"}},
	{"Fashion / Beauty", []string{"fashion", "style", "outfit", "ootd", "makeup", "beauty"}},
	{"Tech / Developer", []string{"developer", "coding", "programmer", "software", "tech"}},
	{"Photography", []string{"photography", "photographer", "camera", "portrait"}},
	{"Music / Artist", []string{"music", "singer", "songwriter", "producer", "dj"}},
}

// cityEntry maps a city keyword to its "City, Country" form. Kept as an
// ordered slice so first-match-wins resolution is deterministic.
type cityEntry struct {
	keyword  string
	location string
}

var knownCities = []cityEntry{
	{"mumbai", "Mumbai, India"},
	{"bombay", "Mumbai, India"},
	{"pune", "Pune, India"},
	{"bangalore", "Bengaluru, India"},
	{"bengaluru", "Bengaluru, India"},
	{"delhi", "Delhi, India"},
	{"new delhi", "New Delhi, India"},
	{"hyderabad", "Hyderabad, India"},
	{"chennai", "Chennai, India"},
	{"kolkata", "Kolkata, India"},
	{"karachi", "Karachi, Pakistan"},
	{"lahore", "Lahore, Pakistan"},
	{"islamabad", "Islamabad, Pakistan"},
	{"dubai", "Dubai, UAE"},
	{"london", "London, UK"},
	{"new york", "New York, USA"},
	{"los angeles", "Los Angeles, USA"},
	{"toronto", "Toronto, Canada"},
	{"vancouver", "Vancouver, Canada"},
	{"sydney", "Sydney, Australia"},
	{"melbourne", "Melbourne, Australia"},
	{"paris", "Paris, France"},
}

// Heuristic is the deterministic keyword-based fallback inferrer
type Heuristic struct{}

// NewHeuristic creates the keyword-based inferrer
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Infer classifies bio + captions by keyword lookup. It never fails.
func (h *Heuristic) Infer(_ context.Context, bio string, captions []string) (Result, error) {
	text := strings.ToLower(bio + " " + strings.Join(captions, " "))

	result := Result{Category: unknownResult, Location: unknownResult}

	for _, bucket := range categoryBuckets {
		if containsAny(text, bucket.keywords) {
			result.Category = bucket.category
			break
		}
	}

	for _, city := range knownCities {
		if strings.Contains(text, city.keyword) {
			result.Location = city.location
			break
		}
	}

	return result, nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

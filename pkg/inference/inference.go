// Package inference classifies a profile's category and location from its
// bio and recent captions, via Gemini when an API key is available and a
// deterministic keyword heuristic otherwise.
package inference

import "context"

// Result holds the inferred category and location of a profile
type Result struct {
	Category string `json:"category"`
	Location string `json:"location"`
}

// Inferrer classifies a profile from its bio and recent captions
type Inferrer interface {
	Infer(ctx context.Context, bio string, captions []string) (Result, error)
}

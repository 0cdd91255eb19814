package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"iganalytics/pkg/config"
	errs "iganalytics/pkg/errors"
	"iganalytics/pkg/logger"
)

// maxCaptions is how many recent captions are included in the prompt
const maxCaptions = 5

// Gemini asks Google's generative text API for category and location
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewGemini creates a Gemini-backed inferrer
func NewGemini(cfg *config.GeminiConfig, log logger.Logger) *Gemini {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Gemini{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     log,
	}
}

// geminiRequest is the generateContent request body
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

// Infer issues one generateContent request and parses the two-field JSON
// answer. Any failure returns an error; the caller decides on fallback.
func (g *Gemini) Infer(ctx context.Context, bio string, captions []string) (Result, error) {
	if g.apiKey == "" {
		return Result{}, errs.New(errs.ErrorTypeAuth, "no Gemini API key configured")
	}

	if len(captions) > maxCaptions {
		captions = captions[:maxCaptions]
	}

	prompt := fmt.Sprintf(`Analyze the following Instagram profile data:
BIO: %s
RECENT POST CAPTIONS: %s

Task:
1. Identify the 'Category' or Niche (e.g., Fitness, Travel, Food, Tech, Fashion, Meme).
2. Identify the 'Location' (City, Country) where the creator is likely based. If uncertain, say 'Unknown'.

Return ONLY a JSON string with keys 'category' and 'location'.`,
		bio, strings.Join(captions, " || "))

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, errs.Wrap(errs.ErrorTypeNetwork, "gemini request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, errs.Wrap(errs.ErrorTypeNetwork, "failed to read gemini response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, errs.NewWithCode(errs.ErrorTypeRateLimit, "gemini quota exhausted", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, errs.NewWithCode(errs.ErrorTypeServerError,
			fmt.Sprintf("gemini returned status %d", resp.StatusCode), resp.StatusCode)
	}

	text := gjson.GetBytes(respBody, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return Result{}, errs.New(errs.ErrorTypeParsing, "gemini returned an empty response")
	}

	parsed := gjson.Parse(text)
	result := Result{
		Category: parsed.Get("category").String(),
		Location: parsed.Get("location").String(),
	}
	if result.Category == "" && result.Location == "" {
		return Result{}, errs.New(errs.ErrorTypeParsing, "gemini response is missing category and location")
	}

	return result, nil
}

// SetBaseURL overrides the API base URL (used in tests)
func (g *Gemini) SetBaseURL(url string) {
	g.baseURL = url
}

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iganalytics/pkg/config"
)

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Infer(context.Background(), "Mumbai based fitness coach", nil)
	require.NoError(t, err)
	assert.Equal(t, "Fitness", res.Category)
	assert.Equal(t, "Mumbai, India", res.Location)
}

func TestHeuristicBucketOrder(t *testing.T) {
	h := NewHeuristic()

	// "poet" appears in an earlier bucket than "travel"; first match wins
	res, err := h.Infer(context.Background(), "poet who loves travel", nil)
	require.NoError(t, err)
	assert.Equal(t, "Poetry / Writing", res.Category)
}

func TestHeuristicCityOrder(t *testing.T) {
	h := NewHeuristic()

	// bombay precedes london in the table
	res, err := h.Infer(context.Background(), "bombay to london", nil)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai, India", res.Location)
}

func TestHeuristicUnknown(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Infer(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Unknown (heuristic)", res.Category)
	assert.Equal(t, "Unknown (heuristic)", res.Location)
}

func TestHeuristicUsesCaptions(t *testing.T) {
	h := NewHeuristic()

	res, err := h.Infer(context.Background(), "", []string{"new recipe out now", "shot in Paris"})
	require.NoError(t, err)
	assert.Equal(t, "Food", res.Category)
	assert.Equal(t, "Paris, France", res.Location)
}

func geminiBody(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
}

func newTestGemini(serverURL string) *Gemini {
	g := NewGemini(&config.GeminiConfig{APIKey: "key", Model: "gemini-2.0-flash"}, nil)
	g.SetBaseURL(serverURL)
	return g
}

func TestGeminiInfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		json.NewEncoder(w).Encode(geminiBody(`{"category": "Travel", "location": "Lisbon, Portugal"}`))
	}))
	defer server.Close()

	g := newTestGemini(server.URL)
	res, err := g.Infer(context.Background(), "globetrotter", []string{"off to lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "Travel", res.Category)
	assert.Equal(t, "Lisbon, Portugal", res.Location)
}

func TestGeminiEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	g := newTestGemini(server.URL)
	_, err := g.Infer(context.Background(), "bio", nil)
	assert.Error(t, err)
}

func TestGeminiQuotaExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g := newTestGemini(server.URL)
	_, err := g.Infer(context.Background(), "bio", nil)
	assert.Error(t, err)
}

func TestGeminiNoKey(t *testing.T) {
	g := NewGemini(&config.GeminiConfig{}, nil)
	_, err := g.Infer(context.Background(), "bio", nil)
	assert.Error(t, err)
}

func TestGeminiTruncatesCaptions(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Contents[0].Parts[0].Text
		json.NewEncoder(w).Encode(geminiBody(`{"category": "x", "location": "y"}`))
	}))
	defer server.Close()

	g := newTestGemini(server.URL)
	captions := []string{"one", "two", "three", "four", "five", "six", "seven"}
	_, err := g.Infer(context.Background(), "bio", captions)
	require.NoError(t, err)

	assert.Contains(t, prompt, "five")
	assert.NotContains(t, prompt, "six")
	assert.NotContains(t, prompt, "seven")
}

type failingInferrer struct{}

func (failingInferrer) Infer(context.Context, string, []string) (Result, error) {
	return Result{}, errors.New("remote unavailable")
}

type fixedInferrer struct{ result Result }

func (f fixedInferrer) Infer(context.Context, string, []string) (Result, error) {
	return f.result, nil
}

func TestChainedFallsBackOnError(t *testing.T) {
	c := NewChainedWith(failingInferrer{}, NewHeuristic(), nil)

	res, err := c.Infer(context.Background(), "gym trainer in pune", nil)
	require.NoError(t, err)
	assert.Equal(t, "Fitness", res.Category)
	assert.Equal(t, "Pune, India", res.Location)
}

func TestChainedUsesRemoteResult(t *testing.T) {
	c := NewChainedWith(fixedInferrer{Result{Category: "Gaming", Location: "Seoul, South Korea"}}, NewHeuristic(), nil)

	res, err := c.Infer(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, "Gaming", res.Category)
	assert.Equal(t, "Seoul, South Korea", res.Location)
}

func TestChainedWithoutRemote(t *testing.T) {
	c := NewChained(&config.GeminiConfig{}, nil)

	res, err := c.Infer(context.Background(), "street photography lover", nil)
	require.NoError(t, err)
	assert.Equal(t, "Photography", res.Category)
}

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iganalytics/pkg/analyzer"
	"iganalytics/pkg/config"
	"iganalytics/pkg/export"
	"iganalytics/pkg/inference"
	"iganalytics/pkg/instagram"
)

type staticInferrer struct{}

func (staticInferrer) Infer(context.Context, string, []string) (inference.Result, error) {
	return inference.Result{Category: "Unknown (heuristic)", Location: "Unknown"}, nil
}

// profileServer serves distinct profiles for "alpha" and "beta" and a
// 404 for everything else
func profileServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username != "alpha" && username != "beta" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		followers := 100
		if username == "beta" {
			followers = 200
		}
		json.NewEncoder(w).Encode(instagram.ProfileResponse{
			Status: "ok",
			Data: instagram.Data{User: instagram.User{
				ID:             "1",
				Username:       username,
				FullName:       username,
				EdgeFollowedBy: instagram.EdgeCount{Count: followers},
				EdgeOwnerToTimelineMedia: instagram.EdgeOwnerToTimelineMedia{
					Count: 1,
					Edges: []instagram.Edge{{Node: instagram.Node{
						Typename:         "GraphImage",
						Shortcode:        "X",
						TakenAtTimestamp: time.Now().Unix(),
						EdgeLikedBy:      instagram.EdgeCount{Count: 10},
					}}},
				},
			}},
		})
	}))
}

func testRunner(t *testing.T, serverURL string) (*Runner, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scraper.PostDelay = 0
	cfg.Scraper.RetryDelay = time.Millisecond
	cfg.Scraper.RequestTimeout = 5 * time.Second
	cfg.Output.BaseDirectory = t.TempDir()

	session := instagram.NewSession(cfg, nil)
	session.Client().SetBaseURL(serverURL)
	exp := export.New(cfg.Output.BaseDirectory, nil)
	a := analyzer.NewWith(cfg, session, staticInferrer{}, exp, nil)
	a.SetReportWriter(&bytes.Buffer{})
	return NewWith(cfg, a, exp, nil), cfg
}

func TestRunOnce(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, cfg := testRunner(t, server.URL)
	summaries := r.RunOnce(context.Background(), []string{"alpha", "beta"}, analyzer.Options{Export: true})

	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].Username)
	assert.Equal(t, "beta", summaries[1].Username)

	_, err := os.Stat(filepath.Join(cfg.Output.BaseDirectory, "profiles_comparison.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Output.BaseDirectory, "alpha", "alpha_posts.csv"))
	assert.NoError(t, err)
}

func TestRunOnceSkipsFailedProfiles(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, _ := testRunner(t, server.URL)
	summaries := r.RunOnce(context.Background(), []string{"ghost", "alpha"}, analyzer.Options{})

	require.Len(t, summaries, 1)
	assert.Equal(t, "alpha", summaries[0].Username)
}

func TestRunOnceNoExportWithoutResults(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, cfg := testRunner(t, server.URL)
	summaries := r.RunOnce(context.Background(), []string{"ghost"}, analyzer.Options{Export: true})

	assert.Empty(t, summaries)
	_, err := os.Stat(filepath.Join(cfg.Output.BaseDirectory, "profiles_comparison.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunOnceStopsOnCancel(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, _ := testRunner(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summaries := r.RunOnce(ctx, []string{"alpha", "beta"}, analyzer.Options{})
	assert.Empty(t, summaries)
}

func TestRunScheduledZeroIntervalRunsOnce(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, _ := testRunner(t, server.URL)
	err := r.RunScheduled(context.Background(), []string{"alpha"}, 0, analyzer.Options{})
	assert.NoError(t, err)
}

func TestRunScheduledStopsOnCancel(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, _ := testRunner(t, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- r.RunScheduled(ctx, []string{"alpha"}, 1, analyzer.Options{})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled run did not stop on context cancel")
	}
}

func TestRunOnceSleepsBetweenProfiles(t *testing.T) {
	server := profileServer(t)
	defer server.Close()

	r, cfg := testRunner(t, server.URL)
	cfg.Scraper.PostDelay = time.Second
	var slept int
	r.sleep = func(context.Context, time.Duration) { slept++ }

	r.RunOnce(context.Background(), []string{"alpha", "beta"}, analyzer.Options{})
	// no pause after the final profile
	assert.Equal(t, 1, slept)
}

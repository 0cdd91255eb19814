package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iganalytics/pkg/analytics"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
}

func testExporter(t *testing.T) *Exporter {
	t.Helper()
	e := New(t.TempDir(), nil)
	e.now = fixedClock
	return e
}

func samplePosts() []analytics.Post {
	return []analytics.Post{
		{
			Index:       1,
			Shortcode:   "ABC123",
			Date:        time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
			Likes:       10,
			Comments:    1,
			Caption:     "hello #travel @friend",
			Hashtags:    []string{"travel"},
			Mentions:    []string{"friend"},
			ContentType: "Photo",
		},
		{
			Index:         2,
			Shortcode:     "DEF456",
			Date:          time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
			Likes:         20,
			Comments:      2,
			IsVideo:       true,
			VideoViews:    500,
			Caption:       "#ad new drop",
			ContentType:   "Video/Reel",
			IsBrandCollab: true,
		},
	}
}

func TestWriteProfileArtifacts(t *testing.T) {
	e := testExporter(t)
	stats := analytics.ProfileStats{
		Username:       "acct",
		FullName:       "Test Account",
		Followers:      100,
		EngagementRate: 16.5,
		Category:       "Travel",
		Location:       "Mumbai, India",
	}
	agg := &analytics.Aggregates{
		TopMentions:   []analytics.FreqEntry{{Name: "friend", Count: 1}},
		Followers:     []string{"f1", "f2"},
		Following:     []string{"g1"},
		PostsFailed:   1,
		TotalRequests: 3,
	}

	paths, err := e.WriteProfile(stats, samplePosts(), agg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(e.baseDir, "acct"), paths.OutputDir)
	for _, p := range []string{
		paths.PostsCSV, paths.PostsLog, paths.FollowersLog,
		paths.FollowingLog, paths.InteractionsLog,
		paths.ProfileCSV, paths.ProfileJSON, paths.ProfileXLSX,
	} {
		require.NotEmpty(t, p)
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.Equal(t, filepath.Join(paths.OutputDir, "acct_posts.csv"), paths.PostsCSV)
}

func TestWriteProfilePostsCSVContent(t *testing.T) {
	e := testExporter(t)
	paths, err := e.WriteProfile(analytics.ProfileStats{Username: "acct"}, samplePosts(), &analytics.Aggregates{})
	require.NoError(t, err)

	f, err := os.Open(paths.PostsCSV)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, postColumns, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "ABC123", records[1][1])
	assert.Equal(t, "travel", records[1][8])
	assert.Equal(t, "true", records[2][5])
	assert.Equal(t, "true", records[2][11])
}

func TestWriteProfilePostsJSONL(t *testing.T) {
	e := testExporter(t)
	paths, err := e.WriteProfile(analytics.ProfileStats{Username: "acct"}, samplePosts(), &analytics.Aggregates{})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.PostsLog)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "DEF456", rec["shortcode"])
	assert.Equal(t, true, rec["is_brand_collab"])
}

func TestWriteProfileEmptyPosts(t *testing.T) {
	e := testExporter(t)
	paths, err := e.WriteProfile(analytics.ProfileStats{Username: "acct"}, nil, &analytics.Aggregates{})
	require.NoError(t, err)

	f, err := os.Open(paths.PostsCSV)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, postColumns, records[0])

	info, err := os.Stat(paths.PostsLog)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestWriteProfileSummaryJSON(t *testing.T) {
	e := testExporter(t)
	stats := analytics.ProfileStats{
		Username:        "acct",
		FullName:        "Test Account",
		Followers:       1000,
		AvgLikes:        12.34,
		EngagementRate:  1.23456,
		ViralPercentage: 33.333,
		PostsPerWeek:    2.456,
	}
	paths, err := e.WriteProfile(stats, samplePosts(), &analytics.Aggregates{})
	require.NoError(t, err)

	data, err := os.ReadFile(paths.ProfileJSON)
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "acct", rows[0]["Username"])
	assert.InDelta(t, 12.3, rows[0]["Avg Likes"].(float64), 1e-9)
	assert.InDelta(t, 1.235, rows[0]["Engagement Rate %"].(float64), 1e-9)
	assert.InDelta(t, 33.33, rows[0]["Viral Video %"].(float64), 1e-9)
	assert.Equal(t, "2026-03-15", rows[0]["Scraping Date"])
}

func TestWriteProfileInteractionsSummary(t *testing.T) {
	e := testExporter(t)
	agg := &analytics.Aggregates{
		TopMentions:   []analytics.FreqEntry{{Name: "brand", Count: 4}},
		PostsFailed:   2,
		TotalRequests: 9,
	}
	paths, err := e.WriteProfile(analytics.ProfileStats{Username: "acct"}, nil, agg)
	require.NoError(t, err)

	data, err := os.ReadFile(paths.InteractionsLog)
	require.NoError(t, err)

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "acct", summary["username"])
	assert.Equal(t, float64(2), summary["posts_failed"])
	assert.Equal(t, float64(9), summary["total_requests"])
	assert.NotEmpty(t, summary["generated_at"])
}

func TestWriteComparison(t *testing.T) {
	e := testExporter(t)
	all := []analytics.ProfileStats{
		{Username: "one", FullName: "One", Followers: 100, EngagementRate: 5.5},
		{Username: "two", FullName: "Two", Followers: 200, Category: "Fitness"},
	}
	require.NoError(t, e.WriteComparison(all))

	f, err := os.Open(filepath.Join(e.baseDir, "profiles_comparison.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, comparisonColumns, records[0])
	assert.Equal(t, "one", records[1][0])
	assert.Equal(t, "two", records[2][0])

	data, err := os.ReadFile(filepath.Join(e.baseDir, "profiles_comparison.json"))
	require.NoError(t, err)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Fitness", rows[1]["category"])

	_, err = os.Stat(filepath.Join(e.baseDir, "profiles_comparison.xlsx"))
	assert.NoError(t, err)
}

func TestWriteComparisonEmpty(t *testing.T) {
	e := testExporter(t)
	require.NoError(t, e.WriteComparison(nil))
	_, err := os.Stat(filepath.Join(e.baseDir, "profiles_comparison.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestNoLeftoverTempFiles(t *testing.T) {
	e := testExporter(t)
	_, err := e.WriteProfile(analytics.ProfileStats{Username: "acct"}, samplePosts(), &analytics.Aggregates{})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(e.baseDir, "acct"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), entry.Name())
	}
}

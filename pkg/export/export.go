// Package export writes analysis results to disk as CSV, JSONL, JSON
// and Excel artifacts. Per-profile files land in a directory named
// after the account under the configured base directory; comparison
// files land in the base directory itself.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"iganalytics/pkg/analytics"
	"iganalytics/pkg/logger"
)

// Exporter writes run artifacts. Individual artifact failures are
// logged and skipped so one bad writer never loses the whole run.
type Exporter struct {
	baseDir string
	logger  logger.Logger
	now     func() time.Time
}

// New creates an exporter rooted at baseDir
func New(baseDir string, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{
		baseDir: baseDir,
		logger:  log.WithField("component", "export"),
		now:     time.Now,
	}
}

// postColumns is the posts CSV header, one column per Post field
var postColumns = []string{
	"post_index", "shortcode", "date", "likes", "comments", "is_video",
	"video_view_count", "caption", "hashtags", "mentions", "content_type",
	"is_brand_collab",
}

// summaryColumns is the profile summary header for CSV and Excel
var summaryColumns = []string{
	"Profile Name", "Username", "Bio", "Location", "Category",
	"Followers", "Following", "Total Posts", "Is Verified",
	"Avg Likes", "Avg Comments", "Avg Views (Reels)",
	"Engagement Rate %", "Viral Video %",
	"Brand Collaborations (Recent)", "Posts Per Week", "Scraping Date",
}

// comparisonColumns is the multi-profile comparison header
var comparisonColumns = []string{
	"username", "full_name", "followers", "following", "total_posts",
	"avg_likes", "avg_comments", "avg_views", "engagement_rate",
	"viral_percentage", "posts_per_week", "category", "location",
}

// summaryRow mirrors the profile summary columns for JSON output
type summaryRow struct {
	ProfileName    string  `json:"Profile Name"`
	Username       string  `json:"Username"`
	Bio            string  `json:"Bio"`
	Location       string  `json:"Location"`
	Category       string  `json:"Category"`
	Followers      int     `json:"Followers"`
	Following      int     `json:"Following"`
	TotalPosts     int     `json:"Total Posts"`
	IsVerified     bool    `json:"Is Verified"`
	AvgLikes       float64 `json:"Avg Likes"`
	AvgComments    float64 `json:"Avg Comments"`
	AvgViews       float64 `json:"Avg Views (Reels)"`
	EngagementRate float64 `json:"Engagement Rate %"`
	ViralVideo     float64 `json:"Viral Video %"`
	BrandCollabs   int     `json:"Brand Collaborations (Recent)"`
	PostsPerWeek   float64 `json:"Posts Per Week"`
	ScrapingDate   string  `json:"Scraping Date"`
}

type comparisonRow struct {
	Username        string  `json:"username"`
	FullName        string  `json:"full_name"`
	Followers       int     `json:"followers"`
	Following       int     `json:"following"`
	TotalPosts      int     `json:"total_posts"`
	AvgLikes        float64 `json:"avg_likes"`
	AvgComments     float64 `json:"avg_comments"`
	AvgViews        float64 `json:"avg_views"`
	EngagementRate  float64 `json:"engagement_rate"`
	ViralPercentage float64 `json:"viral_percentage"`
	PostsPerWeek    float64 `json:"posts_per_week"`
	Category        string  `json:"category"`
	Location        string  `json:"location"`
}

// WriteProfile writes every per-profile artifact for one run and
// returns the paths of the files that were written. The only fatal
// error is failing to create the output directory.
func (e *Exporter) WriteProfile(stats analytics.ProfileStats, posts []analytics.Post, agg *analytics.Aggregates) (analytics.ExportPaths, error) {
	name := stats.Username
	if name == "" {
		name = "profile"
	}
	dir := filepath.Join(e.baseDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return analytics.ExportPaths{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := analytics.ExportPaths{OutputDir: dir}
	file := func(suffix string) string {
		return filepath.Join(dir, name+suffix)
	}

	if p := file("_posts.csv"); e.try(p, e.postsCSV(posts)) {
		paths.PostsCSV = p
	}
	if p := file("_posts_log.jsonl"); e.try(p, e.postsJSONL(posts)) {
		paths.PostsLog = p
	}
	if p := file("_followers.jsonl"); e.try(p, usernamesJSONL(agg.Followers)) {
		paths.FollowersLog = p
	}
	if p := file("_following.jsonl"); e.try(p, usernamesJSONL(agg.Following)) {
		paths.FollowingLog = p
	}
	if p := file("_interactions_summary.json"); e.try(p, e.interactionsJSON(stats.Username, agg)) {
		paths.InteractionsLog = p
	}

	row := newSummaryRow(stats, e.now())
	if p := file("_profile_summary.csv"); e.try(p, summaryCSV(row)) {
		paths.ProfileCSV = p
	}
	if p := file("_profile_summary.json"); e.try(p, marshalIndent([]summaryRow{row})) {
		paths.ProfileJSON = p
	}
	if p := file("_profile_summary.xlsx"); e.try(p, summaryXLSX(row)) {
		paths.ProfileXLSX = p
	}

	e.logger.InfoWithFields("exports written", map[string]interface{}{
		"username": name,
		"dir":      dir,
	})
	return paths, nil
}

// WriteComparison writes the multi-profile comparison table to the
// base directory as CSV, JSON and Excel
func (e *Exporter) WriteComparison(all []analytics.ProfileStats) error {
	if len(all) == 0 {
		return nil
	}
	if err := os.MkdirAll(e.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rows := make([]comparisonRow, 0, len(all))
	for _, s := range all {
		rows = append(rows, comparisonRow{
			Username:        s.Username,
			FullName:        s.FullName,
			Followers:       s.Followers,
			Following:       s.Following,
			TotalPosts:      s.TotalPosts,
			AvgLikes:        s.AvgLikes,
			AvgComments:     s.AvgComments,
			AvgViews:        s.AvgViews,
			EngagementRate:  s.EngagementRate,
			ViralPercentage: s.ViralPercentage,
			PostsPerWeek:    s.PostsPerWeek,
			Category:        s.Category,
			Location:        s.Location,
		})
	}

	e.try(filepath.Join(e.baseDir, "profiles_comparison.csv"), comparisonCSV(rows))
	e.try(filepath.Join(e.baseDir, "profiles_comparison.json"), marshalIndent(rows))
	e.try(filepath.Join(e.baseDir, "profiles_comparison.xlsx"), comparisonXLSX(rows))
	return nil
}

// try writes one artifact atomically, logging instead of failing
func (e *Exporter) try(path string, build func() ([]byte, error)) bool {
	data, err := build()
	if err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("could not build export artifact")
		return false
	}
	if err := writeAtomic(path, data); err != nil {
		e.logger.WithError(err).WithField("path", path).Warn("could not write export artifact")
		return false
	}
	return true
}

// writeAtomic writes to a temp file and renames into place
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (e *Exporter) postsCSV(posts []analytics.Post) func() ([]byte, error) {
	return func() ([]byte, error) {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(postColumns); err != nil {
			return nil, err
		}
		for _, p := range posts {
			record := []string{
				strconv.Itoa(p.Index),
				p.Shortcode,
				p.Date.Format(time.RFC3339),
				strconv.Itoa(p.Likes),
				strconv.Itoa(p.Comments),
				strconv.FormatBool(p.IsVideo),
				strconv.Itoa(p.VideoViews),
				p.Caption,
				strings.Join(p.Hashtags, ","),
				strings.Join(p.Mentions, ","),
				p.ContentType,
				strconv.FormatBool(p.IsBrandCollab),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()
	}
}

func (e *Exporter) postsJSONL(posts []analytics.Post) func() ([]byte, error) {
	return func() ([]byte, error) {
		var buf bytes.Buffer
		for _, p := range posts {
			line, err := json.Marshal(p)
			if err != nil {
				return nil, err
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
}

func usernamesJSONL(names []string) func() ([]byte, error) {
	return func() ([]byte, error) {
		var buf bytes.Buffer
		for _, name := range names {
			line, err := json.Marshal(map[string]string{"username": name})
			if err != nil {
				return nil, err
			}
			buf.Write(line)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	}
}

func (e *Exporter) interactionsJSON(username string, agg *analytics.Aggregates) func() ([]byte, error) {
	return func() ([]byte, error) {
		summary := struct {
			Username      string                `json:"username"`
			GeneratedAt   string                `json:"generated_at"`
			TopMentions   []analytics.FreqEntry `json:"top_mentions"`
			PostsFailed   int                   `json:"posts_failed"`
			TotalRequests int                   `json:"total_requests"`
		}{
			Username:      username,
			GeneratedAt:   e.now().Format(time.RFC3339),
			TopMentions:   agg.TopMentions,
			PostsFailed:   agg.PostsFailed,
			TotalRequests: agg.TotalRequests,
		}
		return json.MarshalIndent(summary, "", "  ")
	}
}

func newSummaryRow(stats analytics.ProfileStats, now time.Time) summaryRow {
	return summaryRow{
		ProfileName:    stats.FullName,
		Username:       stats.Username,
		Bio:            stats.Bio,
		Location:       stats.Location,
		Category:       stats.Category,
		Followers:      stats.Followers,
		Following:      stats.Following,
		TotalPosts:     stats.TotalPosts,
		IsVerified:     stats.IsVerified,
		AvgLikes:       round1(stats.AvgLikes),
		AvgComments:    round1(stats.AvgComments),
		AvgViews:       round1(stats.AvgViews),
		EngagementRate: analytics.Round3(stats.EngagementRate),
		ViralVideo:     analytics.Round2(stats.ViralPercentage),
		BrandCollabs:   stats.BrandCollabs,
		PostsPerWeek:   analytics.Round2(stats.PostsPerWeek),
		ScrapingDate:   now.Format("2006-01-02"),
	}
}

func (r summaryRow) record() []string {
	return []string{
		r.ProfileName, r.Username, r.Bio, r.Location, r.Category,
		strconv.Itoa(r.Followers), strconv.Itoa(r.Following),
		strconv.Itoa(r.TotalPosts), strconv.FormatBool(r.IsVerified),
		formatFloat(r.AvgLikes), formatFloat(r.AvgComments),
		formatFloat(r.AvgViews), formatFloat(r.EngagementRate),
		formatFloat(r.ViralVideo), strconv.Itoa(r.BrandCollabs),
		formatFloat(r.PostsPerWeek), r.ScrapingDate,
	}
}

func (r comparisonRow) record() []string {
	return []string{
		r.Username, r.FullName,
		strconv.Itoa(r.Followers), strconv.Itoa(r.Following),
		strconv.Itoa(r.TotalPosts),
		formatFloat(r.AvgLikes), formatFloat(r.AvgComments),
		formatFloat(r.AvgViews), formatFloat(r.EngagementRate),
		formatFloat(r.ViralPercentage), formatFloat(r.PostsPerWeek),
		r.Category, r.Location,
	}
}

func summaryCSV(row summaryRow) func() ([]byte, error) {
	return func() ([]byte, error) {
		return recordsCSV(summaryColumns, [][]string{row.record()})
	}
}

func comparisonCSV(rows []comparisonRow) func() ([]byte, error) {
	return func() ([]byte, error) {
		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			records = append(records, r.record())
		}
		return recordsCSV(comparisonColumns, records)
	}
}

func recordsCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func summaryXLSX(row summaryRow) func() ([]byte, error) {
	return func() ([]byte, error) {
		return recordsXLSX(summaryColumns, [][]string{row.record()})
	}
}

func comparisonXLSX(rows []comparisonRow) func() ([]byte, error) {
	return func() ([]byte, error) {
		records := make([][]string, 0, len(rows))
		for _, r := range rows {
			records = append(records, r.record())
		}
		return recordsXLSX(comparisonColumns, records)
	}
}

func recordsXLSX(header []string, records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}
	if err := writeRow(1, header); err != nil {
		return nil, err
	}
	for i, record := range records {
		if err := writeRow(i+2, record); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalIndent(v interface{}) func() ([]byte, error) {
	return func() ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

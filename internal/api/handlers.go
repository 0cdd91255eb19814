package api

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"iganalytics/pkg/analytics"
	"iganalytics/pkg/instagram"
)

// analyzeRequest is the POST /analyze body
type analyzeRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	username := instagram.SanitizeUsername(req.Username)
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if !instagram.IsValidUsername(username) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid username: %s", username))
		return
	}

	stats, posts, extra := s.analyze(r.Context(), username)
	if stats.IsZero() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Could not fetch data for @%s", username))
		return
	}

	res := &result{
		Stats:       stats,
		Posts:       posts,
		Extra:       extra,
		GeneratedAt: time.Now(),
	}
	s.setLast(res)
	s.snapshot(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":        res.Stats,
		"posts_loaded": len(res.Posts),
		"generated_at": res.GeneratedAt,
	})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content_distribution": res.Extra.ContentDistribution,
		"top_hashtags":         res.Extra.TopHashtags,
		"viral_percentage":     res.Stats.ViralPercentage,
		"brand_collabs":        res.Stats.BrandCollabs,
		"avg_views":            res.Stats.AvgViews,
	})
}

// postView is a post plus its absolute engagement for the explorer
type postView struct {
	analytics.Post
	Engagement int    `json:"engagement"`
	PostURL    string `json:"post_url"`
}

// handlePosts filters the scraped posts. Query parameters: type
// (content type), collab (true/false), min_likes, q (caption search).
// Results are sorted by engagement, highest first.
func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}

	q := r.URL.Query()
	contentType := q.Get("type")
	search := strings.ToLower(q.Get("q"))
	minLikes := 0
	if raw := q.Get("min_likes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_likes must be an integer")
			return
		}
		minLikes = v
	}
	var collabFilter *bool
	if raw := q.Get("collab"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "collab must be true or false")
			return
		}
		collabFilter = &v
	}

	filtered := make([]postView, 0, len(res.Posts))
	for _, p := range res.Posts {
		if contentType != "" && p.ContentType != contentType {
			continue
		}
		if p.Likes < minLikes {
			continue
		}
		if collabFilter != nil && p.IsBrandCollab != *collabFilter {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Caption), search) {
			continue
		}
		view := postView{
			Post:       p,
			Engagement: p.Likes + p.Comments,
		}
		if p.Shortcode != "" {
			view.PostURL = fmt.Sprintf("https://www.instagram.com/p/%s/", p.Shortcode)
		}
		filtered = append(filtered, view)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Engagement > filtered[j].Engagement
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts":   filtered,
		"showing": len(filtered),
		"total":   len(res.Posts),
	})
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"followers_fetched": len(res.Extra.Followers),
		"following_fetched": len(res.Extra.Following),
		"followers_sample":  sample(res.Extra.Followers, 50),
		"following_sample":  sample(res.Extra.Following, 50),
		"top_mentions":      res.Extra.TopMentions,
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"posts_failed":   res.Extra.PostsFailed,
		"total_requests": res.Extra.TotalRequests,
		"posts_scraped":  len(res.Posts),
		"er_timeline":    res.Extra.ERTimeline,
		"max_posts":      s.cfg.Scraper.MaxPosts,
	})
}

func (s *Server) handleDownloadSummary(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}
	combined := map[string]interface{}{
		"stats":        res.Stats,
		"extra":        res.Extra,
		"generated_at": time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not build summary")
		return
	}
	name := fmt.Sprintf("%s_summary_from_dashboard.json", res.Stats.Username)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func (s *Server) handleDownloadPostsCSV(w http.ResponseWriter, r *http.Request) {
	res := s.latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no analysis available")
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{
		"post_index", "shortcode", "date", "likes", "comments", "is_video",
		"video_view_count", "caption", "hashtags", "mentions", "content_type",
		"is_brand_collab",
	})
	for _, p := range res.Posts {
		cw.Write([]string{
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
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeError(w, http.StatusInternalServerError, "could not build csv")
		return
	}

	name := fmt.Sprintf("%s_posts_from_dashboard.csv", res.Stats.Username)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(buf.Bytes())
}

func sample(names []string, n int) []string {
	if len(names) <= n {
		return names
	}
	return names[:n]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

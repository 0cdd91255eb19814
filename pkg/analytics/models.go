// Package analytics holds the analyzed data model and derives engagement
// metrics from a collected post set. All derivations are pure functions
// over an immutable post slice built once after pagination finishes.
package analytics

import "time"

// Post is one scraped post record. Created once during pagination and
// never mutated afterwards. Index is 1-based in fetch order.
type Post struct {
	Index         int       `json:"post_index"`
	Shortcode     string    `json:"shortcode"`
	Date          time.Time `json:"date"`
	Likes         int       `json:"likes"`
	Comments      int       `json:"comments"`
	IsVideo       bool      `json:"is_video"`
	VideoViews    int       `json:"video_view_count"`
	Caption       string    `json:"caption"`
	Hashtags      []string  `json:"hashtags"`
	Mentions      []string  `json:"mentions"`
	ContentType   string    `json:"content_type"`
	IsBrandCollab bool      `json:"is_brand_collab"`
}

// ProfileInfo is the profile-level input to stats computation
type ProfileInfo struct {
	Username   string
	FullName   string
	Bio        string
	Followers  int
	Following  int
	TotalPosts int
	IsVerified bool
}

// ProfileStats is the profile summary produced by one analysis run.
// Immutable once computed. A zero-value stats (empty username) is the
// abort signal callers must check for.
type ProfileStats struct {
	Username        string  `json:"username"`
	FullName        string  `json:"full_name"`
	Bio             string  `json:"bio"`
	Followers       int     `json:"followers"`
	Following       int     `json:"following"`
	TotalPosts      int     `json:"total_posts"`
	IsVerified      bool    `json:"is_verified"`
	AvgLikes        float64 `json:"avg_likes"`
	AvgComments     float64 `json:"avg_comments"`
	AvgViews        float64 `json:"avg_views"`
	EngagementRate  float64 `json:"engagement_rate"`
	ViralPercentage float64 `json:"viral_percentage"`
	PostsPerWeek    float64 `json:"posts_per_week"`
	BrandCollabs    int     `json:"brand_collabs"`
	Category        string  `json:"category"`
	Location        string  `json:"location"`
}

// IsZero reports whether the stats record is the empty abort sentinel
func (s ProfileStats) IsZero() bool {
	return s.Username == ""
}

// FreqEntry is one name/count pair in a frequency ranking
type FreqEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ERPoint is one point of the chronological engagement-rate timeline
type ERPoint struct {
	Date      string  `json:"date"`
	PostIndex int     `json:"post_index"`
	ERPercent float64 `json:"er_percent"`
}

// ExportPaths lists the artifact files written by one run
type ExportPaths struct {
	OutputDir       string `json:"output_dir,omitempty"`
	PostsCSV        string `json:"posts_csv,omitempty"`
	PostsLog        string `json:"posts_log,omitempty"`
	FollowersLog    string `json:"followers_log,omitempty"`
	FollowingLog    string `json:"following_log,omitempty"`
	InteractionsLog string `json:"interactions_log,omitempty"`
	ProfileCSV      string `json:"profile_csv,omitempty"`
	ProfileJSON     string `json:"profile_json,omitempty"`
	ProfileXLSX     string `json:"profile_xlsx,omitempty"`
}

// Aggregates holds the derived, read-only side outputs of one run
type Aggregates struct {
	TopHashtags         []FreqEntry        `json:"top_hashtags"`
	TopMentions         []FreqEntry        `json:"top_mentions"`
	ContentDistribution map[string]float64 `json:"content_distribution"`
	ERTimeline          []ERPoint          `json:"er_timeline"`
	PostsFailed         int                `json:"posts_failed"`
	TotalRequests       int                `json:"total_requests"`
	Followers           []string           `json:"followers_list"`
	Following           []string           `json:"following_list"`
	Exports             ExportPaths        `json:"exports"`
}

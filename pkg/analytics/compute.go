package analytics

import (
	"math"
	"sort"
)

const (
	// TopN is how many entries hashtag and mention rankings keep
	TopN = 20

	// viralMultiplier marks a video as viral when its engagement rate
	// exceeds this multiple of the mean video engagement rate
	viralMultiplier = 3.0
)

// EngagementRate returns the per-post engagement rate in percent.
// Zero followers yields zero rather than a division error.
func EngagementRate(likes, comments, followers int) float64 {
	if followers <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(followers) * 100
}

// BuildStats computes averages, engagement, viral share and posting
// cadence for a profile from its collected posts. Posts may be empty,
// in which case all derived metrics are zero.
func BuildStats(info ProfileInfo, posts []Post) ProfileStats {
	stats := ProfileStats{
		Username:   info.Username,
		FullName:   info.FullName,
		Bio:        info.Bio,
		Followers:  info.Followers,
		Following:  info.Following,
		TotalPosts: info.TotalPosts,
		IsVerified: info.IsVerified,
	}
	if len(posts) == 0 {
		return stats
	}

	var likes, comments, views, videos, collabs int
	for _, p := range posts {
		likes += p.Likes
		comments += p.Comments
		if p.IsVideo {
			views += p.VideoViews
			videos++
		}
		if p.IsBrandCollab {
			collabs++
		}
	}
	n := float64(len(posts))
	stats.AvgLikes = float64(likes) / n
	stats.AvgComments = float64(comments) / n
	if videos > 0 {
		stats.AvgViews = float64(views) / float64(videos)
	}
	stats.BrandCollabs = collabs

	if info.Followers > 0 {
		var erSum float64
		for _, p := range posts {
			erSum += EngagementRate(p.Likes, p.Comments, info.Followers)
		}
		stats.EngagementRate = erSum / n
		stats.ViralPercentage = viralShare(posts, info.Followers)
	}
	stats.PostsPerWeek = postsPerWeek(posts)
	return stats
}

// viralShare is the percentage of videos whose engagement rate exceeds
// viralMultiplier times the mean video engagement rate
func viralShare(posts []Post, followers int) float64 {
	var videoERs []float64
	for _, p := range posts {
		if p.IsVideo {
			videoERs = append(videoERs, EngagementRate(p.Likes, p.Comments, followers))
		}
	}
	if len(videoERs) == 0 {
		return 0
	}
	var sum float64
	for _, er := range videoERs {
		sum += er
	}
	threshold := viralMultiplier * sum / float64(len(videoERs))
	var viral int
	for _, er := range videoERs {
		if er > threshold {
			viral++
		}
	}
	return float64(viral) / float64(len(videoERs)) * 100
}

// postsPerWeek needs at least two posts and a positive date span,
// otherwise the cadence is unknown and reported as zero
func postsPerWeek(posts []Post) float64 {
	if len(posts) < 2 {
		return 0
	}
	min, max := posts[0].Date, posts[0].Date
	for _, p := range posts[1:] {
		if p.Date.Before(min) {
			min = p.Date
		}
		if p.Date.After(max) {
			max = p.Date
		}
	}
	days := int(max.Sub(min).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return float64(len(posts)) / (float64(days) / 7)
}

// TopHashtags ranks hashtag occurrences across all posts, most frequent
// first, ties broken by first appearance. At most TopN entries.
func TopHashtags(posts []Post) []FreqEntry {
	return topFreq(posts, func(p Post) []string { return p.Hashtags })
}

// TopMentions ranks mention occurrences the same way as TopHashtags
func TopMentions(posts []Post) []FreqEntry {
	return topFreq(posts, func(p Post) []string { return p.Mentions })
}

func topFreq(posts []Post, pick func(Post) []string) []FreqEntry {
	counts := make(map[string]int)
	first := make(map[string]int)
	var order int
	for _, p := range posts {
		for _, name := range pick(p) {
			if _, seen := counts[name]; !seen {
				first[name] = order
				order++
			}
			counts[name]++
		}
	}
	entries := make([]FreqEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, FreqEntry{Name: name, Count: count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return first[entries[i].Name] < first[entries[j].Name]
	})
	if len(entries) > TopN {
		entries = entries[:TopN]
	}
	return entries
}

// ContentDistribution returns the percentage of collected posts per
// content type. Percentages sum to ~100 over a non-empty post set.
func ContentDistribution(posts []Post) map[string]float64 {
	dist := make(map[string]float64)
	if len(posts) == 0 {
		return dist
	}
	for _, p := range posts {
		dist[p.ContentType]++
	}
	for k, v := range dist {
		dist[k] = v / float64(len(posts)) * 100
	}
	return dist
}

// ERTimeline returns per-post engagement rates sorted by date, oldest
// first. Empty when the follower count is unknown or zero.
func ERTimeline(posts []Post, followers int) []ERPoint {
	if followers <= 0 || len(posts) == 0 {
		return nil
	}
	points := make([]ERPoint, 0, len(posts))
	for _, p := range posts {
		points = append(points, ERPoint{
			Date:      p.Date.Format("2006-01-02"),
			PostIndex: p.Index,
			ERPercent: Round3(EngagementRate(p.Likes, p.Comments, followers)),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// BuildAggregates derives all ranking and timeline outputs for one run
func BuildAggregates(posts []Post, followers int) *Aggregates {
	return &Aggregates{
		TopHashtags:         TopHashtags(posts),
		TopMentions:         TopMentions(posts),
		ContentDistribution: ContentDistribution(posts),
		ERTimeline:          ERTimeline(posts, followers),
	}
}

// Round3 rounds to three decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

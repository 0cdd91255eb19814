// Package analyzer orchestrates one profile analysis run: profile
// load, bounded post pagination, metric derivation, category and
// location inference, audience enumeration and exports.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"iganalytics/pkg/analytics"
	"iganalytics/pkg/config"
	errs "iganalytics/pkg/errors"
	"iganalytics/pkg/export"
	"iganalytics/pkg/inference"
	"iganalytics/pkg/instagram"
	"iganalytics/pkg/logger"
	"iganalytics/pkg/ratelimit"
	"iganalytics/pkg/retry"
	"iganalytics/pkg/textutil"
)

// Options controls what one analysis run produces besides the
// returned values
type Options struct {
	Export      bool
	PrintReport bool
}

// Analyzer runs profile analyses. Safe for sequential reuse across
// profiles; not safe for concurrent Analyze calls on one instance.
type Analyzer struct {
	cfg      *config.Config
	session  *instagram.Session
	inferrer inference.Inferrer
	exporter *export.Exporter
	pacer    *ratelimit.Pacer
	logger   logger.Logger

	// sleep and report are swappable for tests
	sleep  func(ctx context.Context, d time.Duration)
	report io.Writer
}

// New wires an analyzer from configuration: an Instagram session
// (authenticated when credentials are configured), the Gemini plus
// heuristic inference chain and a file exporter.
func New(cfg *config.Config, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{
		cfg:      cfg,
		session:  instagram.NewSession(cfg, log),
		inferrer: inference.NewChained(&cfg.Gemini, log),
		exporter: export.New(cfg.Output.BaseDirectory, log),
		pacer:    ratelimit.NewPacer(cfg.Scraper.PostDelay, cfg.Scraper.LongBreakEvery),
		logger:   log.WithField("component", "analyzer"),
		sleep:    sleepCtx,
		report:   os.Stdout,
	}
}

// NewWith builds an analyzer from explicit collaborators
func NewWith(cfg *config.Config, session *instagram.Session, inf inference.Inferrer, exp *export.Exporter, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Analyzer{
		cfg:      cfg,
		session:  session,
		inferrer: inf,
		exporter: exp,
		pacer:    ratelimit.NewPacer(cfg.Scraper.PostDelay, cfg.Scraper.LongBreakEvery),
		logger:   log.WithField("component", "analyzer"),
		sleep:    sleepCtx,
		report:   os.Stdout,
	}
}

// Session exposes the underlying Instagram session
func (a *Analyzer) Session() *instagram.Session {
	return a.session
}

// SetReportWriter redirects the printed report
func (a *Analyzer) SetReportWriter(w io.Writer) {
	a.report = w
}

// Analyze runs the full pipeline for one username. A profile that
// cannot be loaded yields zero-value stats, no posts and empty
// aggregates rather than an error; partial post failures are counted
// in the aggregates and never abort the run.
func (a *Analyzer) Analyze(ctx context.Context, username string, opts Options) (analytics.ProfileStats, []analytics.Post, *analytics.Aggregates) {
	username = instagram.SanitizeUsername(username)
	log := a.logger.WithField("username", username)
	log.Info("analyzing profile")

	profile, err := a.loadProfile(ctx, username)
	if err != nil {
		log.WithError(err).Error("could not load profile, skipping")
		return analytics.ProfileStats{}, nil, &analytics.Aggregates{}
	}

	posts, failed, requests := a.collectPosts(ctx, profile, log)

	info := analytics.ProfileInfo{
		Username:   profile.Username,
		FullName:   profile.FullName,
		Bio:        profile.Biography,
		Followers:  profile.EdgeFollowedBy.Count,
		Following:  profile.EdgeFollow.Count,
		TotalPosts: profile.EdgeOwnerToTimelineMedia.Count,
		IsVerified: profile.IsVerified,
	}
	stats := analytics.BuildStats(info, posts)

	agg := analytics.BuildAggregates(posts, info.Followers)
	agg.PostsFailed = failed
	agg.TotalRequests = requests

	log.Info("inferring category and location")
	captions := make([]string, 0, len(posts))
	for _, p := range posts {
		captions = append(captions, p.Caption)
	}
	res, err := a.inferrer.Infer(ctx, stats.Bio, captions)
	if err != nil {
		log.WithError(err).Warn("inference failed")
		res = inference.Result{Category: "Unknown", Location: "Unknown"}
	}
	stats.Category = res.Category
	stats.Location = res.Location

	agg.Followers, agg.Following = a.collectAudience(profile.ID, log)

	if opts.Export {
		paths, err := a.exporter.WriteProfile(stats, posts, agg)
		if err != nil {
			log.WithError(err).Warn("export failed")
		} else {
			agg.Exports = paths
		}
	}
	if opts.PrintReport {
		a.printReport(stats, agg)
	}
	return stats, posts, agg
}

// loadProfile fetches the profile with bounded retries. A temporary
// block aborts immediately instead of hammering the endpoint.
func (a *Analyzer) loadProfile(ctx context.Context, username string) (*instagram.User, error) {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = a.cfg.Scraper.MaxRetries
	cfg.Backoff = &retry.ExponentialBackoff{
		BaseDelay:  a.cfg.Scraper.RetryDelay,
		MaxDelay:   time.Minute,
		Multiplier: 2,
	}
	cfg.Context = ctx
	cfg.Logger = a.logger

	return retry.DoWithResult(func() (*instagram.User, error) {
		return a.session.Client().FetchProfile(username)
	}, cfg)
}

// collectPosts paginates the timeline up to the configured post cap.
// Rate limiting stops pagination, transient connection failures wait
// out a cooldown and retry the same page, anything else stops with the
// page counted as failed.
func (a *Analyzer) collectPosts(ctx context.Context, profile *instagram.User, log logger.Logger) (posts []analytics.Post, failed, requests int) {
	maxPosts := a.cfg.Scraper.MaxPosts
	timeline := profile.EdgeOwnerToTimelineMedia
	edges := timeline.Edges
	pageInfo := timeline.PageInfo

	for {
		for _, edge := range edges {
			if len(posts) >= maxPosts {
				break
			}
			if ctx.Err() != nil {
				return posts, failed, requests
			}
			requests++
			posts = append(posts, a.buildPost(len(posts)+1, &edge.Node))

			if len(posts)%5 == 0 {
				log.InfoWithFields("scraping posts", map[string]interface{}{
					"scraped": len(posts),
				})
			}
			if err := a.pacer.Wait(ctx, len(posts)); err != nil {
				return posts, failed, requests
			}
		}
		if len(posts) >= maxPosts || !pageInfo.HasNextPage || ctx.Err() != nil {
			return posts, failed, requests
		}

		page, err := a.session.Client().FetchPostPage(profile.ID, pageInfo.EndCursor, maxPosts-len(posts))
		if err != nil {
			switch {
			case errs.IsTooManyRequests(err) || errs.IsTemporaryBlock(err):
				failed++
				log.WithError(err).Warn("rate limited, stopping post scraping early")
				return posts, failed, requests
			case errs.IsConnection(err):
				failed++
				log.WithError(err).Warn("connection issue, cooling down before retry")
				a.sleep(ctx, a.cfg.Scraper.ConnectionCooldown)
				if ctx.Err() != nil {
					return posts, failed, requests
				}
				// the current page is already consumed; only the fetch repeats
				edges = nil
				continue
			default:
				failed++
				log.WithError(err).Warn("skipping remaining posts after page error")
				return posts, failed, requests
			}
		}
		if len(page.Edges) == 0 {
			return posts, failed, requests
		}
		edges = page.Edges
		pageInfo = page.PageInfo
	}
}

// buildPost converts a timeline node into a post record. Mentions are
// the union of caption mentions and tagged users, caption order first.
func (a *Analyzer) buildPost(index int, node *instagram.Node) analytics.Post {
	caption := node.Caption()
	mentions := textutil.ExtractMentions(caption)
	seen := make(map[string]bool, len(mentions))
	for _, m := range mentions {
		seen[m] = true
	}
	for _, tagged := range node.TaggedUsernames() {
		tagged = strings.ToLower(tagged)
		if !seen[tagged] {
			seen[tagged] = true
			mentions = append(mentions, tagged)
		}
	}
	return analytics.Post{
		Index:         index,
		Shortcode:     node.Shortcode,
		Date:          node.TakenAt(),
		Likes:         node.EdgeLikedBy.Count,
		Comments:      node.EdgeMediaToComment.Count,
		IsVideo:       node.IsVideo,
		VideoViews:    node.VideoViewCount,
		Caption:       caption,
		Hashtags:      textutil.ExtractHashtags(caption),
		Mentions:      mentions,
		ContentType:   node.ContentType(),
		IsBrandCollab: textutil.IsBrandCollab(caption),
	}
}

// collectAudience enumerates followers and following up to the
// configured cap. Requires an authenticated session; failures degrade
// to empty lists.
func (a *Analyzer) collectAudience(userID string, log logger.Logger) (followers, following []string) {
	if !a.session.Authenticated() {
		log.Debug("not authenticated, skipping follower enumeration")
		return nil, nil
	}
	max := a.cfg.Scraper.MaxFollowers
	followers = a.collectUserList(userID, max, a.session.Client().FetchFollowers, log.WithField("list", "followers"))
	following = a.collectUserList(userID, max, a.session.Client().FetchFollowing, log.WithField("list", "following"))
	return followers, following
}

func (a *Analyzer) collectUserList(userID string, max int, fetch func(string, string) (*instagram.UserListResponse, error), log logger.Logger) []string {
	if max <= 0 {
		return nil
	}
	var names []string
	maxID := ""
	for len(names) < max {
		page, err := fetch(userID, maxID)
		if err != nil {
			log.WithError(err).Warn("could not enumerate user list")
			return names
		}
		for _, u := range page.Users {
			if len(names) >= max {
				break
			}
			names = append(names, u.Username)
		}
		if page.NextMaxID == "" || len(page.Users) == 0 {
			break
		}
		maxID = page.NextMaxID
	}
	return names
}

// printReport writes the human-readable run summary
func (a *Analyzer) printReport(stats analytics.ProfileStats, agg *analytics.Aggregates) {
	w := a.report
	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintf(w, "REPORT: @%s\n", stats.Username)
	fmt.Fprintf(w, "Name: %s\n", stats.FullName)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Bio: %s\n", oneLine(stats.Bio))
	fmt.Fprintf(w, "Location (AI/Heuristic): %s\n", stats.Location)
	fmt.Fprintf(w, "Category (AI/Heuristic): %s\n", stats.Category)
	fmt.Fprintln(w, "--------------------")
	fmt.Fprintf(w, "Followers: %d\n", stats.Followers)
	fmt.Fprintf(w, "Following: %d\n", stats.Following)
	fmt.Fprintf(w, "Total Posts: %d\n", stats.TotalPosts)
	fmt.Fprintf(w, "Verified: %v\n", stats.IsVerified)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Avg Likes: %.1f\n", stats.AvgLikes)
	fmt.Fprintf(w, "Avg Comments: %.1f\n", stats.AvgComments)
	fmt.Fprintf(w, "Avg Views (Reels): %.1f\n", stats.AvgViews)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Engagement Rate: %.3f%%\n", stats.EngagementRate)
	fmt.Fprintf(w, "Viral Video %%: %.2f%%\n", stats.ViralPercentage)
	fmt.Fprintf(w, "Brand Collaborations (recent sample): %d\n", stats.BrandCollabs)
	fmt.Fprintf(w, "Posts Per Week: %.2f\n", stats.PostsPerWeek)
	fmt.Fprintf(w, "Scraping Date: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(w, "Posts failed during scrape: %d\n", agg.PostsFailed)
	fmt.Fprintf(w, "Requests made: %d\n", agg.TotalRequests)

	if len(agg.TopHashtags) > 0 {
		fmt.Fprintln(w, "\nTop Hashtags:")
		for _, e := range agg.TopHashtags {
			fmt.Fprintf(w, "  #%s: %d\n", e.Name, e.Count)
		}
	}
	if len(agg.TopMentions) > 0 {
		fmt.Fprintln(w, "\nTop Mentions:")
		for _, e := range agg.TopMentions {
			fmt.Fprintf(w, "  @%s: %d\n", e.Name, e.Count)
		}
	}
	if len(agg.ContentDistribution) > 0 {
		fmt.Fprintln(w, "\nContent Distribution:")
		for _, name := range []string{"Photo", "Video/Reel", "Carousel", "Unknown"} {
			if pct, ok := agg.ContentDistribution[name]; ok {
				fmt.Fprintf(w, "  %s: %.1f%%\n", name, pct)
			}
		}
	}
	if len(agg.ERTimeline) > 0 {
		points := agg.ERTimeline
		if len(points) > 10 {
			points = points[len(points)-10:]
		}
		fmt.Fprintln(w, "\nEngagement Timeline (last 10 posts):")
		for _, p := range points {
			fmt.Fprintf(w, "  %s  post %-3d %.3f%%\n", p.Date, p.PostIndex, p.ERPercent)
		}
	}
	if agg.Exports.OutputDir != "" {
		fmt.Fprintf(w, "\nExported to %s:\n", agg.Exports.OutputDir)
		for _, p := range []string{
			agg.Exports.PostsCSV, agg.Exports.PostsLog,
			agg.Exports.FollowersLog, agg.Exports.FollowingLog,
			agg.Exports.InteractionsLog, agg.Exports.ProfileCSV,
			agg.Exports.ProfileJSON, agg.Exports.ProfileXLSX,
		} {
			if p != "" {
				fmt.Fprintf(w, "  %s\n", filepath.Base(p))
			}
		}
	}
	fmt.Fprintln(w)
}

func oneLine(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Package runner analyzes batches of profiles sequentially and can
// repeat the whole batch on a fixed schedule.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"iganalytics/pkg/analytics"
	"iganalytics/pkg/analyzer"
	"iganalytics/pkg/config"
	"iganalytics/pkg/export"
	"iganalytics/pkg/logger"
)

// Runner drives multi-profile batches through one shared analyzer so
// the Instagram session and its cookies are reused across profiles
type Runner struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	exporter *export.Exporter
	logger   logger.Logger

	sleep func(ctx context.Context, d time.Duration)
}

// New wires a runner from configuration
func New(cfg *config.Config, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return NewWith(cfg, analyzer.New(cfg, log), export.New(cfg.Output.BaseDirectory, log), log)
}

// NewWith builds a runner from explicit collaborators
func NewWith(cfg *config.Config, a *analyzer.Analyzer, e *export.Exporter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		cfg:      cfg,
		analyzer: a,
		exporter: e,
		logger:   log.WithField("component", "runner"),
		sleep:    sleepCtx,
	}
}

// RunOnce analyzes every username in order, pausing the configured
// post delay between profiles, and writes the comparison exports when
// at least one profile produced stats. Profiles that fail to load are
// skipped rather than failing the batch.
func (r *Runner) RunOnce(ctx context.Context, usernames []string, opts analyzer.Options) []analytics.ProfileStats {
	var summaries []analytics.ProfileStats
	for i, username := range usernames {
		if ctx.Err() != nil {
			break
		}
		r.logger.InfoWithFields("analyzing profile", map[string]interface{}{
			"username": username,
			"position": fmt.Sprintf("%d/%d", i+1, len(usernames)),
		})
		stats, _, _ := r.analyzer.Analyze(ctx, username, opts)
		if stats.IsZero() {
			r.logger.WithField("username", username).Warn("no results for profile, skipping in comparison")
		} else {
			summaries = append(summaries, stats)
		}
		if i < len(usernames)-1 {
			r.sleep(ctx, r.cfg.Scraper.PostDelay)
		}
	}

	if len(summaries) > 0 {
		r.logComparison(summaries)
		if opts.Export {
			if err := r.exporter.WriteComparison(summaries); err != nil {
				r.logger.WithError(err).Warn("could not write comparison exports")
			}
		}
	}
	return summaries
}

// RunScheduled repeats the batch every scheduleMinutes until the
// context is cancelled. The first run starts immediately; a
// non-positive interval degrades to a single run.
func (r *Runner) RunScheduled(ctx context.Context, usernames []string, scheduleMinutes int, opts analyzer.Options) error {
	if scheduleMinutes <= 0 {
		r.RunOnce(ctx, usernames, opts)
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %dm", scheduleMinutes), func() {
		r.logger.Info("scheduled run starting")
		r.RunOnce(ctx, usernames, opts)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule runs: %w", err)
	}

	r.RunOnce(ctx, usernames, opts)
	r.logger.WithField("interval_minutes", scheduleMinutes).Info("scheduling recurring runs")
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}

// logComparison logs the key metric line per profile
func (r *Runner) logComparison(summaries []analytics.ProfileStats) {
	for _, s := range summaries {
		r.logger.InfoWithFields("comparison summary", map[string]interface{}{
			"username":        s.Username,
			"followers":       s.Followers,
			"engagement_rate": analytics.Round3(s.EngagementRate),
			"posts_per_week":  analytics.Round2(s.PostsPerWeek),
			"category":        s.Category,
			"location":        s.Location,
		})
	}
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

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"iganalytics/pkg/analyzer"
	"iganalytics/pkg/instagram"
	"iganalytics/pkg/logger"
	"iganalytics/pkg/runner"
)

var (
	analyzeMaxPosts int
	analyzeSchedule int
	noExport        bool
	quiet           bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [usernames...]",
	Short: "Analyze one or more Instagram profiles",
	Long: `Analyze Instagram profiles: scrape recent posts, compute engagement
metrics, infer category and location, and export the results.

With multiple usernames the profiles are analyzed sequentially and a
comparison table is written alongside the per-profile exports. With
--schedule the whole batch repeats at the given interval until
interrupted.`,
	Example: `  # Single profile
  iganalytics analyze instagram

  # Multiple profiles with comparison exports
  iganalytics analyze natgeo nasa

  # Repeat the batch every 60 minutes
  iganalytics analyze natgeo nasa --schedule 60

  # Analyze without writing files
  iganalytics analyze natgeo --no-export`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&analyzeMaxPosts, "max-posts", 0, "maximum recent posts to scrape per profile")
	analyzeCmd.Flags().IntVar(&analyzeSchedule, "schedule", -1, "repeat the batch every N minutes (0 disables)")
	analyzeCmd.Flags().BoolVar(&noExport, "no-export", false, "skip writing export files")
	analyzeCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the printed report")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{}
	if analyzeMaxPosts > 0 {
		flags["max-posts"] = analyzeMaxPosts
	}
	if analyzeSchedule >= 0 {
		flags["schedule"] = analyzeSchedule
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	usernames := collectUsernames(args)
	if len(usernames) == 0 {
		fmt.Println("No usernames provided, nothing to do.")
		return nil
	}
	for i, u := range usernames {
		u = instagram.SanitizeUsername(u)
		if !instagram.IsValidUsername(u) {
			return fmt.Errorf("invalid username %q", u)
		}
		usernames[i] = u
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := analyzer.Options{Export: !noExport, PrintReport: !quiet}

	if len(usernames) == 1 && cfg.Scraper.ScheduleMinutes <= 0 {
		a := analyzer.New(cfg, log)
		stats, _, _ := a.Analyze(ctx, usernames[0], opts)
		if stats.IsZero() {
			return fmt.Errorf("could not fetch data for @%s", usernames[0])
		}
		return nil
	}

	r := runner.New(cfg, log)
	return r.RunScheduled(ctx, usernames, cfg.Scraper.ScheduleMinutes, opts)
}

// collectUsernames merges positional arguments with an interactive
// prompt when none were given
func collectUsernames(args []string) []string {
	var usernames []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				usernames = append(usernames, part)
			}
		}
	}
	if len(usernames) > 0 {
		return usernames
	}

	fmt.Print("Enter Instagram usernames (comma separated): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil
	}
	for _, part := range strings.Split(line, ",") {
		if part = strings.TrimSpace(part); part != "" {
			usernames = append(usernames, part)
		}
	}
	return usernames
}

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"iganalytics/pkg/auth"
	"iganalytics/pkg/config"
	"iganalytics/pkg/logger"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "iganalytics",
	Short: "Instagram profile analytics scraper",
	Long: `iganalytics scrapes public Instagram profiles and derives engagement
analytics: averages, engagement rate, viral share, posting cadence,
hashtag and mention rankings, plus AI-assisted category and location
inference. Results are exported as CSV, JSONL, JSON and Excel files.

Profiles are scraped anonymously by default. Stored credentials (see
"iganalytics auth") unlock follower and following enumeration.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .iganalytics.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "base directory for exports")

	rootCmd.SetVersionTemplate(`iganalytics {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig builds the effective configuration from defaults, config
// file, environment and flags, then initializes logging. Stored
// credentials fill in the login account when the config has none.
func loadConfig(extraFlags map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	for k, v := range extraFlags {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if cfg.Instagram.Username == "" {
		fillStoredCredentials(cfg)
	}
	return cfg, nil
}

// fillStoredCredentials merges the default stored account, if any
func fillStoredCredentials(cfg *config.Config) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	account, err := manager.RetrieveDefault()
	if err != nil {
		return
	}
	cfg.Instagram.Username = account.Username
	cfg.Instagram.Password = account.Password
	logger.GetLogger().WithField("username", account.Username).Debug("using stored credentials")
}

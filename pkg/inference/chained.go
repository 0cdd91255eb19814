package inference

import (
	"context"

	"iganalytics/pkg/config"
	"iganalytics/pkg/logger"
)

// Chained tries the remote service first and falls back to the heuristic
// on any failure. It never returns an error.
type Chained struct {
	remote    Inferrer
	heuristic Inferrer
	logger    logger.Logger
}

// NewChained builds the default inferrer: Gemini when an API key is
// configured, heuristic-only otherwise.
func NewChained(cfg *config.GeminiConfig, log logger.Logger) *Chained {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Chained{
		heuristic: NewHeuristic(),
		logger:    log,
	}
	if cfg.APIKey != "" {
		c.remote = NewGemini(cfg, log)
	} else {
		log.Info("no Gemini API key, category/location will use the heuristic only")
	}
	return c
}

// NewChainedWith builds a chain from explicit implementations (used in tests)
func NewChainedWith(remote, heuristic Inferrer, log logger.Logger) *Chained {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Chained{remote: remote, heuristic: heuristic, logger: log}
}

// Infer runs the remote inference with heuristic fallback
func (c *Chained) Infer(ctx context.Context, bio string, captions []string) (Result, error) {
	if c.remote == nil {
		return c.heuristic.Infer(ctx, bio, captions)
	}

	result, err := c.remote.Infer(ctx, bio, captions)
	if err != nil {
		c.logger.WithError(err).Warn("remote inference failed, using heuristic")
		return c.heuristic.Infer(ctx, bio, captions)
	}
	return result, nil
}

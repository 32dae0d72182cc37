package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"map-helper/internal/config"
	"map-helper/internal/conflog"
	"map-helper/internal/locate"
	"map-helper/internal/logging"
	"map-helper/internal/match"
	"map-helper/internal/templates"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	logger     *slog.Logger
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := config.DefaultPath()
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.configPath = path

		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.LogLevel = strings.TrimSpace(*c.logLevelFlag)
		}

		logger, err := logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		})
		if err != nil {
			c.configErr = err
			return
		}
		c.config = &cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// engine wires an Identifier from the loaded configuration. The returned
// func releases the cached templates and their descriptors.
func (c *commandContext) engine() (*locate.Identifier, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	matcher := match.New(match.Options{
		Features:      cfg.ORBFeatures,
		RatioTest:     cfg.RatioTest,
		MinInliers:    cfg.MinInliers,
		Preprocessing: match.Preprocessing(cfg.Preprocessing),
	})
	store := templates.NewStore(c.logger)

	scorer := locate.MatcherScorer(matcher)

	opts := locate.OptionsFromConfig(*cfg)
	opts.Scorer = scorer
	opts.Templates = store
	opts.Samples = conflog.NewWriter(cfg.ConfidenceLog, c.logger)
	opts.Logger = c.logger

	release := func() {
		scorer.Close()
		store.Close()
	}
	return locate.NewIdentifier(opts), release, nil
}

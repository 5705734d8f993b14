package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/ics-crawler/internal/config"
	"github.com/JakeFAU/ics-crawler/internal/logging"
)

// runtimeKeyType is the key for storing the runtime in the command context.
type runtimeKeyType struct{}

// runtime carries what every subcommand needs.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

// newLogger is a variable so tests can swap in a no-op logger.
var newLogger = logging.New

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "webcrawler",
		Short: "A polite, focused crawler for the UCI ICS web.",
		Long: `webcrawler crawls the ics, cs, informatics and stat subdomains of uci.edu,
honoring robots.txt, and reports unique pages, the longest page, the most
common words and per-subdomain outlink counts.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := newLogger(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, runtimeKeyType{}, &runtime{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if rt, err := resolveRuntime(cmd.Context()); err == nil {
				return logging.Sync(rt.logger)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); CRAWLER_* env vars override it")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newNormalizeCmd())
	return cmd
}

func resolveRuntime(ctx context.Context) (*runtime, error) {
	if ctx == nil {
		return nil, errors.New("command context missing")
	}
	rt, ok := ctx.Value(runtimeKeyType{}).(*runtime)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

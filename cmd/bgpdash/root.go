package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ezrizhu/bgpdash/internal/api/client"
	"github.com/ezrizhu/bgpdash/internal/config"
	"github.com/ezrizhu/bgpdash/internal/httpclient"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "bgpdash",
	Short:             "BGP dashboard client and reference backend",
	Version:           version,
	PersistentPreRunE: initConfig,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath, "config file")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error, fatal, panic)")
	flags.String("log-format", "", "Log format (json, pretty)")
	flags.String("base-url", "", "base URL of the dashboard backend")
	flags.Duration("timeout", 0, "request timeout")
}

// initConfig loads the configuration and lets explicitly set flags
// override it
func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("base-url") {
		cfg.API.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("timeout") {
		cfg.API.Timeout, _ = flags.GetDuration("timeout")
	}

	configureLogger(cfg.Log)
	log.Debug().Str("base_url", cfg.API.BaseURL).Msg("configuration loaded")
	return nil
}

func newClient() (*client.Client, error) {
	return client.NewFromConfig(httpclient.Config{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		RequestLogging: cfg.API.RequestLogging,
	}, httpclient.WithUserAgent("bgpdash/"+version))
}

type entrypointE func(ctx context.Context, cmd *cobra.Command, args []string) error
type runE func(cmd *cobra.Command, args []string) error

// withSignals runs f with a context cancelled on SIGINT or SIGTERM
func withSignals(f entrypointE) runE {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()
		return f(ctx, cmd, args)
	}
}

func printJSON(v any) error {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

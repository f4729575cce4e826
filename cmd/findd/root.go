package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"findd/internal/app"
	"findd/internal/config"
)

// cli carries what the persistent flags resolve to.
type cli struct {
	configPath string
	logLevel   string
	baseDir    string
	instance   string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&cli{configPath: os.Getenv("FINDD_CONFIG")})
}

func newRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "findd",
		Short:         "Voice-driven file search on top of the Everything engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", c.configPath, "Config file (.yaml/.yml/.json/.toml; defaults FINDD_CONFIG)")
	pf.StringVar(&c.logLevel, "log-level", "", "Log level: trace|debug|info|warn|error|off (overrides config)")
	pf.StringVar(&c.baseDir, "base-dir", "", "Directory holding Everything and es.exe (overrides config)")
	pf.StringVar(&c.instance, "instance", "", "Engine instance id (overrides config)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.load(cmd)
	}

	root.AddCommand(
		newServeCmd(c),
		newFindCmd(c),
		newProbeCmd(c),
		newInstancesCmd(c),
		newEnsureCmd(c),
		newStopCmd(c),
		newBlockCmd(c),
	)
	return root
}

// load reads the config file, applies flag overrides and builds the logger.
func (c *cli) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("base-dir") {
		cfg.Engine.BaseDir = c.baseDir
	}
	if flags.Changed("instance") {
		cfg.Engine.Instance = c.instance
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.log = newLogger(cfg.LogLevel)
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "off" {
		lvl = zerolog.Disabled
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func (c *cli) service() (*app.Service, error) {
	svc, err := app.Build(c.cfg, c.log, app.BuildOptions{})
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return svc, nil
}

// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leseb/fileindexer/pkg/core/config"
	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/filestore"
	"github.com/leseb/fileindexer/pkg/observability/logging"
	"github.com/leseb/fileindexer/pkg/settings"
	"github.com/leseb/fileindexer/pkg/textcache"
)

// app holds what every command needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	enable     []string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "fileindexer",
		Short: "Extract searchable text from office documents, PDFs and plain text",
		Long: `fileindexer converts attached documents into plain text for a search index.
Each file is handled by exactly one extractor, chosen by extension in
priority order among the enabled ones, under per-extension size and
text length policies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "configuration file (.yaml or .toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	flags.StringSliceVar(&a.enable, "enable", nil, "extractor ids to enable, overriding the configuration")

	cmd.AddCommand(
		newExtractCmd(a),
		newExtractorsCmd(a),
		newRunCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func (a *app) init(stderr io.Writer) error {
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.Default()
	}
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		a.cfg.Logging.Format = a.logFormat
	}
	a.logger = logging.New(logging.Config{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		Output: stderr,
	})
	return nil
}

// settings builds the settings store with the --enable override applied.
func (a *app) settings() (*settings.Store, error) {
	store, err := a.cfg.Indexer.Settings()
	if err != nil {
		return nil, err
	}
	if len(a.enable) > 0 {
		store.Set(fileindexer.KeyEnabled, a.enable)
	}
	return store, nil
}

func (a *app) dispatcher(ctx context.Context) (*fileindexer.Dispatcher, *settings.Store, *fileindexer.Registry, error) {
	reg, err := a.cfg.Indexer.Registry()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := a.settings()
	if err != nil {
		return nil, nil, nil, err
	}
	d, err := fileindexer.New(ctx, reg, store,
		fileindexer.WithLogger(a.logger),
		fileindexer.WithStatic(a.cfg.Indexer.Static))
	if err != nil {
		return nil, nil, nil, err
	}
	return d, store, reg, nil
}

func (a *app) source(ctx context.Context, src config.SourceConfig) (filestore.Source, error) {
	var params map[string]string
	switch src.Type {
	case "filesystem":
		params = map[string]string{"base_dir": src.BaseDir}
	case "s3":
		params = map[string]string{
			"bucket":   src.S3Bucket,
			"region":   src.S3Region,
			"prefix":   src.S3Prefix,
			"endpoint": src.S3Endpoint,
		}
	}
	s, err := filestore.Providers.New(ctx, src.Type, params)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	a.logger.Info("Initialized file source", "type", src.Type)
	return s, nil
}

// cache returns nil when caching is disabled.
func (a *app) cache(ctx context.Context) (textcache.Cache, error) {
	cfg := a.cfg.Cache
	if cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}
	c, err := textcache.Providers.New(ctx, cfg.Type, map[string]string{
		"path": cfg.Path,
		"dsn":  cfg.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.logger.Info("Initialized result cache", "type", cfg.Type)
	return c, nil
}

// output opens the JSON lines destination; "-" is stdout.
func output(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open output: %w", err)
	}
	return f, f.Close, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("fileindexer version %s (built %s)\n", Version, BuildTime)
		},
	}
}

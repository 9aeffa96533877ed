// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/leseb/fileindexer/pkg/batch"
	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/filestore"
)

type runFlags struct {
	prefix    string
	output    string
	workers   int
	rateLimit float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.output, "output", "", "JSON lines result file, - for stdout (default from config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent extractions (default from config)")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "maximum extractions per second (default from config)")
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Extract every document of the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := a.source(ctx, a.cfg.Source)
			if err != nil {
				return err
			}
			defer src.Close(context.WithoutCancel(ctx))

			r, closeAll, err := a.runner(ctx, f, src, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeAll()

			summary, err := r.runner.Run(ctx, f.prefix)
			if err != nil {
				return err
			}
			cmd.PrintErrln(summary.String())
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "only process keys starting with this prefix")
	return cmd
}

// wiredRunner bundles a batch runner with the dispatcher it drives.
type wiredRunner struct {
	runner     *batch.Runner
	dispatcher *fileindexer.Dispatcher
	build      func() *batch.Runner
	reload     func(context.Context) error
}

// runner wires the dispatcher, cache and sink into a batch runner. The
// returned func releases the cache and output file.
func (a *app) runner(ctx context.Context, f *runFlags, src filestore.Source, stdout io.Writer) (*wiredRunner, func(), error) {
	d, store, _, err := a.dispatcher(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := a.cfg.Batch
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.workers > 0 {
		cfg.Workers = f.workers
	}
	if f.rateLimit > 0 {
		cfg.RateLimit = f.rateLimit
	}

	cache, err := a.cache(ctx)
	if err != nil {
		return nil, nil, err
	}
	w, closeOut, err := output(cfg.Output, stdout)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, nil, err
	}
	closeAll := func() {
		if err := closeOut(); err != nil {
			a.logger.Warn("closing output failed", "error", err)
		}
		if cache != nil {
			if err := cache.Close(); err != nil {
				a.logger.Warn("closing cache failed", "error", err)
			}
		}
	}

	sink := batch.NewJSONLSink(w)
	wr := &wiredRunner{dispatcher: d}
	// The cache fingerprint follows the dispatcher snapshot, so the runner
	// is rebuilt after every reload.
	wr.build = func() *batch.Runner {
		opts := []batch.Option{
			batch.WithWorkers(cfg.Workers),
			batch.WithRateLimit(cfg.RateLimit),
			batch.WithLogger(a.logger),
		}
		if cache != nil {
			opts = append(opts, batch.WithCache(cache, fingerprint(d)))
		}
		return batch.NewRunner(d, src, sink, opts...)
	}
	wr.reload = func(ctx context.Context) error {
		fresh, err := a.settings()
		if err != nil {
			return err
		}
		store.Replace(fresh.Values())
		if err := d.Reload(ctx); err != nil {
			return err
		}
		wr.runner = wr.build()
		return nil
	}
	wr.runner = wr.build()
	return wr, closeAll, nil
}

func fingerprint(d *fileindexer.Dispatcher) string {
	var ids []string
	for _, e := range d.Extractors() {
		ids = append(ids, e.Info().ID)
	}
	return batch.Fingerprint(ids, d.Policies())
}

// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leseb/fileindexer/pkg/batch"
	"github.com/leseb/fileindexer/pkg/core/config"
)

func newWatchCmd(a *app) *cobra.Command {
	f := &runFlags{}
	var initial bool
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Extract documents of a directory as they change",
		Long: `Watches a directory tree and extracts created and modified documents
after each burst of changes. Deleted documents are reported and dropped
from the result cache. SIGHUP reloads the indexer settings before the
next batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := a.source(ctx, config.SourceConfig{Type: "filesystem", BaseDir: args[0]})
			if err != nil {
				return err
			}
			defer src.Close(context.WithoutCancel(ctx))

			wr, closeAll, err := a.runner(ctx, f, src, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeAll()

			w, err := batch.NewWatcher(args[0], a.cfg.Batch.DebounceDuration(), a.logger)
			if err != nil {
				return err
			}
			defer w.Close()

			if initial {
				summary, err := wr.runner.Run(ctx, "")
				if err != nil {
					return err
				}
				cmd.PrintErrln(summary.String())
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			a.logger.Info("watching for changes", "dir", args[0])
			err = w.Run(ctx, func(ctx context.Context, changes []batch.Change) error {
				select {
				case <-hup:
					if err := wr.reload(ctx); err != nil {
						a.logger.Error("settings reload failed", "error", err)
					} else {
						a.logger.Info("settings reloaded")
					}
				default:
				}
				summary, err := wr.runner.RunKeys(ctx, batch.Keys(changes))
				if err != nil {
					return err
				}
				cmd.PrintErrln(summary.String())
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&initial, "initial", true, "extract every existing document before watching")
	return cmd
}

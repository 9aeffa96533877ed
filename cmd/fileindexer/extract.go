// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/leseb/fileindexer/pkg/batch"
	"github.com/leseb/fileindexer/pkg/fileindexer"
)

func newExtractCmd(a *app) *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract the text of local files",
		Long: `Runs the dispatcher over each path and prints one JSON line per file.
A file without usable text is reported with ok=false and the reason.
With --augment the text is appended to the given base index value.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, _, _, err := a.dispatcher(ctx)
			if err != nil {
				return err
			}
			sink := batch.NewJSONLSink(cmd.OutOrStdout())
			for _, path := range args {
				res, err := d.Extract(ctx, path)
				if err != nil {
					return err
				}
				rec := batch.Record{
					Key:       path,
					Size:      res.File.Size,
					OK:        res.OK,
					Text:      res.Text,
					Extractor: res.Extractor,
					Truncated: res.Truncated,
					Reason:    string(res.Reason),
				}
				if cmd.Flags().Changed("augment") {
					rec.Text = fileindexer.Augment(base, res.Text)
				}
				if err := sink.Write(ctx, rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "augment", "", "base index value the extracted text is appended to")
	return cmd
}

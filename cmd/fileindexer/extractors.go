// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

func newExtractorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extractors",
		Short: "List the known extractors, their state and the active policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			d, store, reg, err := a.dispatcher(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enabled := store.GetStringSlice(fileindexer.KeyEnabled)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tENABLED\tAVAILABLE\tEXTENSIONS")
			impls := reg.Implementations()
			for _, id := range reg.IDs() {
				e, err := impls.New(ctx, id, fileindexer.Options{
					Settings: fileindexer.Scope(store, id),
					Static:   a.cfg.Indexer.Static[id],
				})
				if err != nil {
					fmt.Fprintf(tw, "%s\t-\t%s\terror: %v\t-\n", id, yesNo(slices.Contains(enabled, id)), err)
					continue
				}
				info := e.Info()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, info.Label,
					yesNo(slices.Contains(enabled, id)), yesNo(info.Available), strings.Join(info.Extensions, " "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			active := d.Extractors()
			if !hasAvailable(active) {
				fmt.Fprintln(out, "\nno indexing methods available")
			}
			for _, note := range shadowed(active) {
				fmt.Fprintln(out, note)
			}

			p := d.Policies()
			printPolicy(out, "max file size", p.MaxFileSize, true)
			printPolicy(out, "max text length", p.MaxTextLength, false)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func hasAvailable(es []fileindexer.Extractor) bool {
	for _, e := range es {
		if e.Info().Available {
			return true
		}
	}
	return false
}

// shadowed reports extensions claimed by more than one enabled extractor.
// Only the first one in priority order is ever used for them.
func shadowed(es []fileindexer.Extractor) []string {
	owner := make(map[string]string)
	var notes []string
	for _, e := range es {
		info := e.Info()
		if !info.Available {
			continue
		}
		for _, ext := range info.Extensions {
			if first, ok := owner[ext]; ok {
				notes = append(notes, fmt.Sprintf("note: .%s is handled by %s, %s is not used for it", ext, first, info.ID))
				continue
			}
			owner[ext] = info.ID
		}
	}
	return notes
}

func printPolicy(w io.Writer, name string, p fileindexer.Policy, bytes bool) {
	if len(p) == 0 {
		fmt.Fprintf(w, "%s: unlimited\n", name)
		return
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := p[k]
		value := humanize.Comma(v)
		switch {
		case v <= 0:
			value = "unlimited"
		case bytes:
			value = humanize.IBytes(uint64(v))
		}
		parts = append(parts, k+"="+value)
	}
	fmt.Fprintf(w, "%s: %s\n", name, strings.Join(parts, ", "))
}

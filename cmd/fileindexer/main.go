// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/html"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/pdfcpu"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/pdfparser"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/pdftotext"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/plaintext"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/spreadsheet"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/word"
	_ "github.com/leseb/fileindexer/pkg/filestore/filesystem"
	_ "github.com/leseb/fileindexer/pkg/filestore/memory"
	_ "github.com/leseb/fileindexer/pkg/filestore/s3"
	_ "github.com/leseb/fileindexer/pkg/textcache/memory"
	_ "github.com/leseb/fileindexer/pkg/textcache/postgres"
	_ "github.com/leseb/fileindexer/pkg/textcache/sqlite"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

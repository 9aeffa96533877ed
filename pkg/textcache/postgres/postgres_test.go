// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/leseb/fileindexer/pkg/textcache"
	"github.com/leseb/fileindexer/pkg/textcache/postgres"
	"github.com/leseb/fileindexer/pkg/textcache/textcachetest"
)

func TestPostgresConformance(t *testing.T) {
	dsn := os.Getenv("TEXT_CACHE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres conformance tests: TEXT_CACHE_POSTGRES_DSN must be set")
	}

	textcachetest.RunConformanceTests(t, func(t *testing.T) textcache.Cache {
		cache, err := postgres.New(context.Background(), dsn)
		if err != nil {
			t.Fatalf("postgres.New: %v", err)
		}
		// sub-tests share the database; start each from an empty table
		for _, key := range []string{"reports/q1.pdf", "big.xlsx", "a.txt", "gone.txt"} {
			_ = cache.Delete(context.Background(), key)
		}
		return cache
	})
}

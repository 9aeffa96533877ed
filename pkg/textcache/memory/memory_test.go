// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	"testing"

	"github.com/leseb/fileindexer/pkg/textcache"
	"github.com/leseb/fileindexer/pkg/textcache/memory"
	"github.com/leseb/fileindexer/pkg/textcache/textcachetest"
)

func TestMemoryConformance(t *testing.T) {
	textcachetest.RunConformanceTests(t, func(t *testing.T) textcache.Cache {
		return memory.New()
	})
}

// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/leseb/fileindexer/pkg/provider"
)

func newImpls(ids ...string) *provider.Registry[Options, Extractor] {
	impls := provider.NewRegistry[Options, Extractor]("test_indexer")
	for _, id := range ids {
		id := id
		impls.Register(id, func(_ context.Context, _ Options) (Extractor, error) {
			return newSpy(id, true), nil
		})
	}
	return impls
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry(newImpls("a", "b"))
	for _, id := range []string{"a", "b", "a"} {
		if err := reg.Register(id); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}
	if got := reg.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("IDs() = %v, want [a b]", got)
	}
}

func TestRegistry_RegisterUnknown(t *testing.T) {
	reg := NewRegistry(newImpls("a"))
	err := reg.Register("FileIndexerMissing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Register error = %v, want ErrNotFound", err)
	}
	if got := reg.IDs(); len(got) != 0 {
		t.Errorf("unknown id was added: %v", got)
	}
}

func TestRegistry_EnabledKeepsRegistryOrder(t *testing.T) {
	reg := NewRegistry(newImpls("a", "b", "c"))
	for _, id := range []string{"c", "a", "b"} {
		if err := reg.Register(id); err != nil {
			t.Fatal(err)
		}
	}
	got := reg.Enabled([]string{"b", "c", "unknown"})
	if !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Errorf("Enabled() = %v, want [c b]", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry(newImpls(IDPlainText, IDWord, "custom"))
	if got := reg.IDs(); !reflect.DeepEqual(got, []string{IDWord, IDPlainText}) {
		t.Errorf("IDs() = %v, want [%s %s]", got, IDWord, IDPlainText)
	}
	if err := reg.Register("custom"); err != nil {
		t.Fatalf("Register(custom): %v", err)
	}
	if got := reg.IDs(); got[len(got)-1] != "custom" {
		t.Errorf("extra extractor should be appended last, got %v", got)
	}
}

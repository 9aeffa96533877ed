// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/leseb/fileindexer/pkg/provider"
)

// Built-in extractor ids.
const (
	IDSpreadsheet = "spreadsheet"
	IDWord        = "word"
	IDPdfParser   = "pdf_parser"
	IDPdfToText   = "pdf_to_text"
	IDPlainText   = "plain_text"
	IDHTML        = "html"
	IDPdfCPU      = "pdfcpu"
)

// DefaultOrder is the priority order of the built-in extractors.
var DefaultOrder = []string{
	IDSpreadsheet,
	IDWord,
	IDPdfParser,
	IDPdfToText,
	IDPlainText,
}

// Registry is the ordered list of known extractor ids. Order is selection
// priority. It is filled during setup and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	ids   []string
	impls *provider.Registry[Options, Extractor]
}

// NewRegistry returns an empty registry backed by impls. A nil impls uses
// the package-level Implementations table.
func NewRegistry(impls *provider.Registry[Options, Extractor]) *Registry {
	if impls == nil {
		impls = Implementations
	}
	return &Registry{impls: impls}
}

// DefaultRegistry returns a registry holding the built-in ids in
// DefaultOrder. Built-ins whose package was not linked are left out.
func DefaultRegistry(impls *provider.Registry[Options, Extractor]) *Registry {
	r := NewRegistry(impls)
	for _, id := range DefaultOrder {
		if r.impls.Has(id) {
			r.ids = append(r.ids, id)
		}
	}
	return r
}

// Register appends id to the registry. Registering a known id is a no-op;
// an id without implementation fails with ErrNotFound and is not added.
func (r *Registry) Register(id string) error {
	if !r.impls.Has(id) {
		return fmt.Errorf("%w: %s (available: %v)", ErrNotFound, id, r.impls.Available())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.ids, id) {
		r.ids = append(r.ids, id)
	}
	return nil
}

// IDs returns the registered ids in priority order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids)
}

// Enabled filters the registry by the configured ids, keeping registry order.
func (r *Registry) Enabled(configured []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range r.ids {
		if slices.Contains(configured, id) {
			out = append(out, id)
		}
	}
	return out
}

// Implementations returns the factory table backing the registry.
func (r *Registry) Implementations() *provider.Registry[Options, Extractor] {
	return r.impls
}

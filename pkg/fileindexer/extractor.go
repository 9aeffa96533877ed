// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"context"
	"slices"
	"strings"

	"github.com/leseb/fileindexer/pkg/provider"
)

// Implementations is the table of extractor factories keyed by extractor id.
// Extractor packages register themselves from init():
//
//	import _ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/plaintext"
//	import _ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/pdfparser"
var Implementations = provider.NewRegistry[Options, Extractor]("file_indexer")

// Extractor converts one family of document formats into plain text.
type Extractor interface {
	// Info describes the extractor. It has no side effects.
	Info() Info

	// ConfigSchema lists the settings the extractor reads from its namespace.
	ConfigSchema() []ConfigField

	// Text returns the text content of f. An empty string means the file
	// holds no usable text.
	Text(ctx context.Context, f File) (string, error)
}

// Info is the static, self-describing metadata of an extractor.
type Info struct {
	ID         string
	Label      string
	Icon       string
	Extensions []string
	// Available reports whether the extractor's dependency is present. It is
	// computed once, when the extractor is constructed.
	Available bool
}

// Handles reports whether ext (normalized) is one of the extractor's extensions.
func (i Info) Handles(ext string) bool {
	return slices.Contains(i.Extensions, NormalizeExt(ext))
}

// FieldKind is the value type of a ConfigField.
type FieldKind string

const (
	FieldInteger FieldKind = "integer"
	FieldText    FieldKind = "text"
)

// ConfigField describes a single per-extractor setting for settings UIs.
type ConfigField struct {
	Name        string
	Kind        FieldKind
	Label       string
	Description string
	Notes       string
	Default     string
}

// NoConfig can be embedded by extractors without settings.
type NoConfig struct{}

// ConfigSchema returns nil.
func (NoConfig) ConfigSchema() []ConfigField { return nil }

// Settings is a read-only key-value configuration source.
type Settings interface {
	GetString(key string) string
	GetStringSlice(key string) []string
}

// Options is passed to extractor factories.
type Options struct {
	// Settings is the extractor's own namespace of the settings store: a
	// lookup of "timeout" reads "<id>.timeout".
	Settings Settings

	// Static holds values that may only come from static process
	// configuration, never from the editable settings store.
	Static map[string]string
}

// Scope returns the view of s namespaced by prefix.
func Scope(s Settings, prefix string) Settings {
	return scopedSettings{parent: s, prefix: strings.TrimSuffix(prefix, ".") + "."}
}

type scopedSettings struct {
	parent Settings
	prefix string
}

func (s scopedSettings) GetString(key string) string {
	if s.parent == nil {
		return ""
	}
	return s.parent.GetString(s.prefix + key)
}

func (s scopedSettings) GetStringSlice(key string) []string {
	if s.parent == nil {
		return nil
	}
	return s.parent.GetStringSlice(s.prefix + key)
}

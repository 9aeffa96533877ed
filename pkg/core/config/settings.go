// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/settings"
)

// Settings builds the key-value settings store: the seeds of this
// configuration, overlaid with the settings file when one is configured.
func (c IndexerConfig) Settings() (*settings.Store, error) {
	store := settings.New(nil)
	if len(c.Enabled) > 0 {
		store.Set(fileindexer.KeyEnabled, slices.Clone(c.Enabled))
	}
	if c.MaxFileSize != "" {
		store.Set(fileindexer.KeyMaxFileSize, c.MaxFileSize)
	}
	if c.MaxTextLength != "" {
		store.Set(fileindexer.KeyMaxTextLength, c.MaxTextLength)
	}
	for id, fields := range c.Extractors {
		for name, value := range fields {
			store.Set(id+"."+name, value)
		}
	}

	if c.SettingsFile == "" {
		return store, nil
	}
	file, err := settings.LoadFile(c.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("load indexer settings: %w", err)
	}
	for _, key := range file.Keys() {
		v, _ := file.Get(key)
		store.Set(key, v)
	}
	return store, nil
}

// Registry returns the default registry extended with the Extra ids.
func (c IndexerConfig) Registry() (*fileindexer.Registry, error) {
	reg := fileindexer.DefaultRegistry(nil)
	for _, id := range c.Extra {
		if err := reg.Register(strings.TrimSpace(id)); err != nil {
			return nil, fmt.Errorf("register extractor: %w", err)
		}
	}
	return reg, nil
}

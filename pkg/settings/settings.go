// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings implements the key-value configuration source read by
// the file indexer: enabled extractors, policy definitions and the
// namespaced per-extractor fields ("pdf_to_text.timeout").
package settings

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store is an in-memory, thread-safe settings store. Nested tables are
// flattened into dotted keys.
type Store struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates a store seeded with values.
func New(values map[string]any) *Store {
	s := &Store{data: make(map[string]any)}
	flatten("", values, s.data)
	return s
}

// LoadFile reads a TOML settings file:
//
//	enabled_file_indexers = ["spreadsheet", "pdf_parser", "plain_text"]
//	max_file_size = """
//	1048576 pdf
//	5242880
//	"""
//
//	[pdf_to_text]
//	timeout = 30
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return New(values), nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Set stores a value under key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Replace swaps the whole content of the store for values in one step.
// Keys missing from values are removed.
func (s *Store) Replace(values map[string]any) {
	data := make(map[string]any, len(values))
	flatten("", values, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Values returns a copy of all flattened key-value pairs.
func (s *Store) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Get retrieves a raw value.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString returns the value as a string. Numbers are formatted, lists are
// joined with newlines so that a list of policy rows reads like a textarea.
func (s *Store) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, "\n")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(v)
	}
}

// GetStringSlice returns the value as a list. A plain string is split on
// commas and whitespace.
func (s *Store) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	case string:
		return strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
		})
	default:
		return nil
	}
}

// GetInt returns the value as an int, or 0.
func (s *Store) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

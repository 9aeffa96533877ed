// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"regexp"
	"strconv"
	"strings"
)

// Policy keys read from the settings store.
const (
	KeyEnabled       = "enabled_file_indexers"
	KeyMaxFileSize   = "max_file_size"
	KeyMaxTextLength = "max_text_length"
)

// Wildcard is the policy entry used when an extension has no row of its own.
const Wildcard = "*"

var rowSplit = regexp.MustCompile(`\r\n|\n|\r`)

// Policy maps extensions (and Wildcard) to a numeric limit.
type Policy map[string]int64

// ParsePolicy parses a multi-line policy definition such as
//
//	1048576 pdf
//	3145728 doc docx odf rtf
//	5242880
//
// Each row starts with a limit, optionally followed by the extensions it
// applies to; a row without extensions sets the wildcard default. Later
// rows overwrite earlier ones. Rows whose first value is not an integer are
// skipped and reported as *PolicyRowError warnings.
func ParsePolicy(key, raw string) (Policy, []error) {
	p := Policy{}
	var warnings []error
	for _, row := range rowSplit.Split(raw, -1) {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		fields := strings.Fields(row)
		value, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			warnings = append(warnings, &PolicyRowError{Key: key, Row: row})
			continue
		}
		if len(fields) == 1 {
			p[Wildcard] = value
			continue
		}
		for _, ext := range fields[1:] {
			p[NormalizeExt(ext)] = value
		}
	}
	return p, warnings
}

// Resolve returns the limit for ext, falling back to the wildcard default.
func (p Policy) Resolve(ext string) (int64, bool) {
	if v, ok := p[NormalizeExt(ext)]; ok {
		return v, true
	}
	v, ok := p[Wildcard]
	return v, ok
}

// Limit returns the effective limit for ext; 0 means unlimited. A resolved
// value of 0 disables the limit just like a missing one.
func (p Policy) Limit(ext string) int64 {
	v, ok := p.Resolve(ext)
	if !ok || v <= 0 {
		return 0
	}
	return v
}

// Policies holds the two resource policies applied by the Dispatcher.
type Policies struct {
	MaxFileSize   Policy // bytes
	MaxTextLength Policy // characters
}

// LoadPolicies parses both policies from the settings store.
func LoadPolicies(s Settings) (Policies, []error) {
	size, w1 := ParsePolicy(KeyMaxFileSize, s.GetString(KeyMaxFileSize))
	length, w2 := ParsePolicy(KeyMaxTextLength, s.GetString(KeyMaxTextLength))
	return Policies{MaxFileSize: size, MaxTextLength: length}, append(w1, w2...)
}

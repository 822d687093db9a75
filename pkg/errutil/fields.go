// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quill Contributors

package errutil

import (
	"errors"
	"sort"
	"strings"
)

// FieldErrors maps an input field name to a human readable problem. It is
// wrapped by validation errors so callers can attribute each failure.
type FieldErrors map[string]string

// Error implements error with a stable, field-sorted message.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Fields returns the FieldErrors wrapped anywhere in err's chain.
func Fields(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		return fe, true
	}
	return nil, false
}

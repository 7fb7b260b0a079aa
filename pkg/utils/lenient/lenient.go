// Package lenient decodes loosely typed JSON values produced by language
// models or written by older versions of the program. Every function
// returns a safe default instead of an error.
package lenient

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const maxAge = 150

// StringList decodes raw as a list of strings. A value that is not a JSON
// array yields an empty list. Non-string items and blank strings are
// dropped and the remaining strings are trimmed.
func StringList(raw json.RawMessage) []string {
	result := []string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return result
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return result
	}

	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		result = append(result, s)
	}
	return result
}

// Age decodes raw as an age in years. Whole numbers and numeric strings
// are accepted; null, fractions, negatives and anything else yield nil.
func Age(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		n = parsed
	}

	if n != math.Trunc(n) || n < 0 || n > maxAge {
		return nil
	}
	age := int(n)
	return &age
}

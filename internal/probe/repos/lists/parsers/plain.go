// Package parsers reads seed key lists for list-backed instances.
package parsers

import (
	"bufio"
	"io"
	"strings"
)

// ParsePlainList parses a newline-delimited key list.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Trims surrounding whitespace and a leading BOM
// - Skips empty lines after trimming/stripping comments
// - De-duplicates while preserving first-seen order
func ParsePlainList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]string, 0, 256)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimPrefix(line, "\uFEFF")

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		key := strings.TrimSpace(line)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

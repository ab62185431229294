// Package lists holds the concrete instance behaviors (blacklist, whitelist)
// and shared helpers for interpreting Start-time init args.
package lists

import "fmt"

// Keys coerces the opaque init args passed to Start into a seed key slice.
// Accepted shapes: nil (no seeds), []string, or []any of strings.
func Keys(args any) ([]string, error) {
	switch v := args.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		keys := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("init args element %d: expected string, got %T", i, item)
			}
			keys = append(keys, s)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported init args type %T", args)
	}
}

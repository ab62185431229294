// Package whitelist provides an allow-list behavior that trusts the filter's
// positive answers outright: no custom state and no secondary check. Suited
// to instances started with a small enough error rate that false positives
// are tolerable.
package whitelist

import (
	"github.com/haukened/probecache/internal/probe/repos/lists"
	"github.com/haukened/probecache/internal/probe/services/membership"
)

// Behavior implements membership.Behavior with defaults for everything but
// initialization.
type Behavior struct {
	membership.Base
}

// New returns the whitelist behavior.
func New() *Behavior { return &Behavior{} }

// InitializeData seeds the filter from args ([]string of keys; nil for empty).
func (*Behavior) InitializeData(args any) ([]string, any, error) {
	keys, err := lists.Keys(args)
	if err != nil {
		return nil, nil, err
	}
	return keys, nil, nil
}

var _ membership.Behavior = (*Behavior)(nil)

package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/probecache/internal/probe/services/membership"
)

// factory implements membership.FilterFactory using internal sizing formulas.
type factory struct{}

// NewFactory returns a FilterFactory that sizes filters from capacity and
// target false-positive rate.
func NewFactory() membership.FilterFactory { return factory{} }

// New constructs an empty filter generation sized for capacity elements at
// the given error rate.
func (factory) New(capacity uint64, errorRate float64) membership.Filter {
	m, k := size(capacity, errorRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}

var _ membership.Filter = (*filter)(nil)

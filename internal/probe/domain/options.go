package domain

import "fmt"

const (
	// DefaultCapacity is the expected element count used when a caller
	// supplies no capacity.
	DefaultCapacity uint64 = 1000
	// DefaultErrorRate is the target false-positive probability used when a
	// caller supplies no rate.
	DefaultErrorRate float64 = 0.3
)

// FilterOptions configures the probabilistic filter for one instance.
// The options are fixed at Start time and reused to rebuild an empty filter
// generation on every reinit.
type FilterOptions struct {
	Capacity  uint64  // expected number of elements, must be > 0
	ErrorRate float64 // target false-positive probability, in (0, 1)
}

// DefaultFilterOptions returns the options applied when a caller passes the
// zero value.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{Capacity: DefaultCapacity, ErrorRate: DefaultErrorRate}
}

// Normalized fills zero fields with defaults and returns the result.
// It does not validate; call Validate on the returned value.
func (o FilterOptions) Normalized() FilterOptions {
	if o.Capacity == 0 {
		o.Capacity = DefaultCapacity
	}
	if o.ErrorRate == 0 {
		o.ErrorRate = DefaultErrorRate
	}
	return o
}

// Validate reports whether the options can build a filter. Invalid options
// are a startup-time configuration error and are never retried.
func (o FilterOptions) Validate() error {
	if o.Capacity == 0 {
		return fmt.Errorf("filter capacity must be positive, got %d", o.Capacity)
	}
	if !(o.ErrorRate > 0 && o.ErrorRate < 1) {
		return fmt.Errorf("filter error rate must be in (0, 1), got %v", o.ErrorRate)
	}
	return nil
}

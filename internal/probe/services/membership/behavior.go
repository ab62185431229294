package membership

// Base supplies the default implementations for every optional Behavior
// method. Concrete behaviors embed Base and override what they need;
// InitializeData is deliberately absent so the compiler forces each behavior
// to supply its own initialization.
type Base struct{}

// Reinitialize passes data straight through as the new key set and leaves the
// state unchanged.
func (Base) Reinitialize(data []string, state any) ([]string, any, error) {
	return data, state, nil
}

// CheckExists trusts the filter's positive answer with no secondary check.
// Appropriate when false positives are tolerable, e.g. a whitelist with a
// negligible error rate.
func (Base) CheckExists(string, any) bool {
	return true
}

// OnAdd leaves the state unchanged.
func (Base) OnAdd(_ string, state any) (any, error) {
	return state, nil
}

// OnAddList leaves the state unchanged.
func (Base) OnAddList(_ []string, state any) (any, error) {
	return state, nil
}

// OnDelete leaves the state unchanged.
func (Base) OnDelete(_ string, state any) (any, error) {
	return state, nil
}

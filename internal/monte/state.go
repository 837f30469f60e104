package monte

// Configuration is the capability the core requires of a configuration
// payload: an independent deep copy.
type Configuration[C any] interface {
	Clone() C
}

// State pairs a configuration with the conditions it is simulated under.
type State[C Configuration[C]] struct {
	Configuration C
	Conditions    Conditions
}

func NewState[C Configuration[C]](config C, conds Conditions) State[C] {
	return State[C]{Configuration: config, Conditions: conds}
}

// Snapshot returns a State sharing nothing with s.
func (s *State[C]) Snapshot() State[C] {
	return State[C]{
		Configuration: s.Configuration.Clone(),
		Conditions:    s.Conditions.Clone(),
	}
}

package editflow

type State string

const (
	StateLoading    State = "LOADING"
	StateReady      State = "READY"
	StateLoadError  State = "LOAD_ERROR"
	StateSubmitting State = "SUBMITTING"
	StateNavigated  State = "NAVIGATED"
)

var validNext = map[State]map[State]bool{
	StateLoading:    {StateReady: true, StateLoadError: true},
	StateReady:      {StateSubmitting: true},
	StateSubmitting: {StateReady: true, StateNavigated: true},
	StateLoadError:  {},
	StateNavigated:  {},
}

func CanTransition(from, to State) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(validNext[s]) == 0
}

package callstate

// DefaultFailureMessage is reported when a call fails without a descriptive message.
const DefaultFailureMessage = "call failed"

// State is the observable state of a bound call.
type State struct {
	// Data holds the decoded return values of the last successful call, nil if none.
	Data []any
	// Loading is true until the first outcome or block observation settles.
	Loading bool
	// Error holds the message of the last failed call, empty if none.
	Error string
	// LastUpdatedAt is the hash of the last block a refresh was triggered for.
	// Empty means the state was never synchronised with a block.
	LastUpdatedAt string
}

func initialState() State {
	return State{Loading: true}
}

// clone copies the state, keeping an empty but present Data distinguishable from nil.
func (s State) clone() State {
	if s.Data != nil {
		s.Data = append(make([]any, 0, len(s.Data)), s.Data...)
	}
	return s
}

type action interface {
	isAction()
}

type callSucceeded struct{ data []any }

type callFailed struct{ message string }

type blockObserved struct{ hash string }

func (callSucceeded) isAction() {}
func (callFailed) isAction()    {}
func (blockObserved) isAction() {}

// reduce folds an action into the state.
func reduce(s State, a action) State {
	switch a := a.(type) {
	case callSucceeded:
		s.Data = a.data
		s.Error = ""
		s.Loading = false
	case callFailed:
		s.Error = a.message
		s.Loading = false
	case blockObserved:
		s.LastUpdatedAt = a.hash
		s.Loading = false
	}
	return s
}

// failureMessage extracts the message surfaced for a failed call.
func failureMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultFailureMessage
}

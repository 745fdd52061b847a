package ws

import "sync/atomic"

// ConnState is the lifecycle state of a websocket connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	// StateAuthenticated means the login frame was accepted.
	StateAuthenticated
	// StateClosed is terminal; connections are never reopened.
	StateClosed
)

func (s ConnState) String() string {
	return [...]string{
		"disconnected",
		"connecting",
		"connected",
		"authenticated",
		"closed",
	}[s]
}

// State provides atomic access to a ConnState.
type State struct {
	state atomic.Int32
}

func (s *State) Load() ConnState {
	return ConnState(s.state.Load())
}

func (s *State) Store(state ConnState) {
	s.state.Store(int32(state))
}

// CompareAndSwap swaps to new only if the current state is old.
func (s *State) CompareAndSwap(old, new ConnState) bool {
	return s.state.CompareAndSwap(int32(old), int32(new))
}

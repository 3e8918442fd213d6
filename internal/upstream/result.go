package upstream

import (
	"encoding/json"
	"fmt"
)

// Reason classifies why an upstream call did not produce a response.
type Reason int

const (
	ReasonTimeout Reason = iota + 1
	ReasonConnectionFailure
	ReasonOtherRequestError
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "timeout"
	case ReasonConnectionFailure:
		return "connection_failure"
	case ReasonOtherRequestError:
		return "other_request_error"
	default:
		return "unknown"
	}
}

// State is the lifecycle of a single forwarding call. A call moves from
// NotStarted to InFlight and then to exactly one terminal state.
type State int

const (
	StateNotStarted State = iota
	StateInFlight
	StateSucceeded
	StateTimedOut
	StateConnectionFailed
	StateOtherFailure
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateTimedOut:
		return "timed_out"
	case StateConnectionFailed:
		return "connection_failed"
	case StateOtherFailure:
		return "other_failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s >= StateSucceeded
}

// call follows one forwarding attempt through its states. The zero value is
// NotStarted.
type call struct {
	state State
}

// advance moves the call to next. Only NotStarted -> InFlight and
// InFlight -> terminal are allowed; anything else is a programming error.
func (c *call) advance(next State) {
	switch {
	case c.state == StateNotStarted && next == StateInFlight:
	case c.state == StateInFlight && next.Terminal():
	default:
		panic(fmt.Sprintf("upstream: invalid call transition %s -> %s", c.state, next))
	}
	c.state = next
}

// Result is the outcome of one forwarding call. It is either Success or
// Unavailable.
type Result interface {
	State() State
	isResult()
}

// Success means the upstream answered before the timeout. StatusCode is
// whatever the upstream returned, 2xx or not.
type Success struct {
	StatusCode int
	Body       json.RawMessage
}

func (Success) State() State { return StateSucceeded }
func (Success) isResult()    {}

// Unavailable means no usable response was obtained.
type Unavailable struct {
	Reason Reason
	Detail string
}

func (u Unavailable) State() State {
	switch u.Reason {
	case ReasonTimeout:
		return StateTimedOut
	case ReasonConnectionFailure:
		return StateConnectionFailed
	default:
		return StateOtherFailure
	}
}

func (Unavailable) isResult() {}

package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownStatus is returned when parsing a status outside a lifecycle's set.
var ErrUnknownStatus = errors.New("unknown status")

// Edges maps a state to the states reachable from it.
type Edges[S ~string] map[S][]S

// Lifecycle is a closed directed graph of states. Forward edges are the normal
// progression; reset edges are only taken by an explicit operator action.
type Lifecycle[S ~string] struct {
	name    string
	states  []S
	known   map[S]struct{}
	forward map[S]map[S]struct{}
	resets  map[S]map[S]struct{}
}

// TransitionError reports an edge the lifecycle does not allow.
type TransitionError struct {
	Lifecycle string
	From      string
	To        string
	Reset     bool
}

func (e *TransitionError) Error() string {
	kind := "transition"
	if e.Reset {
		kind = "reset"
	}
	return fmt.Sprintf("%s: illegal %s %q -> %q", e.Lifecycle, kind, e.From, e.To)
}

// NewLifecycle builds a lifecycle over states. Edges naming a state outside
// states panic, since the graph is fixed at init time.
func NewLifecycle[S ~string](name string, states []S, forward, resets Edges[S]) *Lifecycle[S] {
	l := &Lifecycle[S]{
		name:    name,
		states:  append([]S(nil), states...),
		known:   make(map[S]struct{}, len(states)),
		forward: index(forward),
		resets:  index(resets),
	}
	for _, s := range states {
		l.known[s] = struct{}{}
	}
	for _, edges := range []Edges[S]{forward, resets} {
		for from, tos := range edges {
			for _, to := range append([]S{from}, tos...) {
				if _, ok := l.known[to]; !ok {
					panic(fmt.Sprintf("%s: edge references unknown state %q", name, to))
				}
			}
		}
	}
	return l
}

func index[S ~string](edges Edges[S]) map[S]map[S]struct{} {
	out := make(map[S]map[S]struct{}, len(edges))
	for from, tos := range edges {
		set := make(map[S]struct{}, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
		}
		out[from] = set
	}
	return out
}

// Name identifies the lifecycle in errors and logs.
func (l *Lifecycle[S]) Name() string { return l.name }

// States returns the states in declaration order.
func (l *Lifecycle[S]) States() []S {
	return append([]S(nil), l.states...)
}

// Known reports whether s belongs to the lifecycle.
func (l *Lifecycle[S]) Known(s S) bool {
	_, ok := l.known[s]
	return ok
}

// Parse converts raw into a known state.
func (l *Lifecycle[S]) Parse(raw string) (S, error) {
	s := S(raw)
	if !l.Known(s) {
		return "", fmt.Errorf("%s: %w %q", l.name, ErrUnknownStatus, raw)
	}
	return s, nil
}

// CanTransition reports whether from -> to is a forward edge.
func (l *Lifecycle[S]) CanTransition(from, to S) bool {
	_, ok := l.forward[from][to]
	return ok
}

// Transition returns a *TransitionError unless from -> to is a forward edge.
func (l *Lifecycle[S]) Transition(from, to S) error {
	if l.CanTransition(from, to) {
		return nil
	}
	return &TransitionError{Lifecycle: l.name, From: string(from), To: string(to)}
}

// CanReset reports whether from -> to is an operator reset edge.
func (l *Lifecycle[S]) CanReset(from, to S) bool {
	_, ok := l.resets[from][to]
	return ok
}

// Reset returns a *TransitionError unless from -> to is a reset edge.
func (l *Lifecycle[S]) Reset(from, to S) error {
	if l.CanReset(from, to) {
		return nil
	}
	return &TransitionError{Lifecycle: l.name, From: string(from), To: string(to), Reset: true}
}

// IsTerminal reports whether s has no forward edges. Terminal states may still
// have reset edges.
func (l *Lifecycle[S]) IsTerminal(s S) bool {
	return l.Known(s) && len(l.forward[s]) == 0
}

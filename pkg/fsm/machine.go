package fsm

import (
	"fmt"
	"sync"
)

type State string
type Event string

// Handler is executed after a transition has been committed. It runs outside
// the machine's lock, so it may read Current or Fire follow-up events.
type Handler func(event Event, args ...interface{}) error

type transition struct {
	to      State
	handler Handler
}

type StateMachine struct {
	mu          sync.RWMutex
	current     State
	transitions map[State]map[Event]transition
}

func New(initial State) *StateMachine {
	return &StateMachine{
		current:     initial,
		transitions: make(map[State]map[Event]transition),
	}
}

func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

func (sm *StateMachine) AddTransition(from, to State, event Event, callback Handler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from]; !ok {
		sm.transitions[from] = make(map[Event]transition)
	}
	sm.transitions[from][event] = transition{to: to, handler: callback}
}

// Can reports whether event is a valid transition from the current state.
func (sm *StateMachine) Can(event Event) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.transitions[sm.current][event]
	return ok
}

// Fire triggers a state transition. It is thread-safe. The new state is
// committed before the handler runs; a handler error is returned but does
// not roll the transition back.
func (sm *StateMachine) Fire(event Event, args ...interface{}) error {
	sm.mu.Lock()
	tr, ok := sm.transitions[sm.current][event]
	if !ok {
		from := sm.current
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition from %s via %s", from, event)
	}
	sm.current = tr.to
	sm.mu.Unlock()

	if tr.handler != nil {
		return tr.handler(event, args...)
	}
	return nil
}

// Personal.AI order the ending

package fsm

import (
	"fmt"
	"testing"
	"time"
)

const (
	stIdle    State = "idle"
	stSpawn   State = "spawning"
	stRunning State = "running"
	stDone    State = "done"
)

func TestStateMachine_NestedFireDoesNotDeadlock(t *testing.T) {
	sm := New(stIdle)

	sm.AddTransition(stIdle, stSpawn, "begin", func(event Event, args ...interface{}) error {
		return sm.Fire("spawned")
	})
	sm.AddTransition(stSpawn, stRunning, "spawned", nil)

	done := make(chan error, 1)
	go func() { done <- sm.Fire("begin") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Fire failed: %v", err)
		}
		if sm.Current() != stRunning {
			t.Errorf("Expected state %s, got %s", stRunning, sm.Current())
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Deadlock detected: Fire did not return within 1 second")
	}
}

func TestStateMachine_Basic(t *testing.T) {
	sm := New(stIdle)
	sm.AddTransition(stIdle, stSpawn, "begin", nil)

	if sm.Current() != stIdle {
		t.Errorf("Expected %s, got %s", stIdle, sm.Current())
	}
	if !sm.Can("begin") {
		t.Error("Expected begin to be allowed from idle")
	}

	if err := sm.Fire("begin"); err != nil {
		t.Fatal(err)
	}
	if sm.Current() != stSpawn {
		t.Errorf("Expected %s, got %s", stSpawn, sm.Current())
	}
	if sm.Can("begin") {
		t.Error("begin must not be allowed from spawning")
	}
}

func TestStateMachine_InvalidTransition(t *testing.T) {
	sm := New(stRunning)
	if err := sm.Fire("begin"); err == nil {
		t.Fatal("Expected error for unknown event")
	}
	if sm.Current() != stRunning {
		t.Errorf("State must not change on invalid transition, got %s", sm.Current())
	}
}

func TestStateMachine_HandlerError(t *testing.T) {
	sm := New(stRunning)
	sm.AddTransition(stRunning, stDone, "finish", func(event Event, args ...interface{}) error {
		return fmt.Errorf("handler failed")
	})

	err := sm.Fire("finish")
	if err == nil || err.Error() != "handler failed" {
		t.Fatalf("Expected handler failed error, got %v", err)
	}
	if sm.Current() != stDone {
		t.Errorf("Expected state %s even if handler failed, got %s", stDone, sm.Current())
	}
}

func TestStateMachine_StateConsistencyInHandler(t *testing.T) {
	sm := New(stIdle)
	var stateInHandler State
	var gotArgs []interface{}
	sm.AddTransition(stIdle, stSpawn, "begin", func(event Event, args ...interface{}) error {
		stateInHandler = sm.Current()
		gotArgs = args
		return nil
	})

	if err := sm.Fire("begin", 1, "x"); err != nil {
		t.Fatal(err)
	}
	if stateInHandler != stSpawn {
		t.Errorf("Expected handler to see state %s, saw %s", stSpawn, stateInHandler)
	}
	if len(gotArgs) != 2 {
		t.Errorf("Expected 2 args passed through, got %d", len(gotArgs))
	}
}

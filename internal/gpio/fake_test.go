package gpio

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/dutycycle-sensor/internal/logic"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func edge(ms int, level logic.Level) logic.Transition {
	return logic.Transition{Time: start.Add(time.Duration(ms) * time.Millisecond), Level: level}
}

func TestFakeWatcherDrain(t *testing.T) {
	f := NewFakeWatcher(
		[]logic.Transition{edge(0, logic.High), edge(3, logic.Low)},
		nil,
		[]logic.Transition{edge(10, logic.High)},
	)

	// First batch
	got, err := f.Drain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("batch 0: expected 2 transitions, got %d", len(got))
	}
	if got[1].Level != logic.Low {
		t.Errorf("batch 0: expected last level LOW, got %s", got[1].Level)
	}

	// Empty batch
	got, err = f.Drain()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("batch 1: expected no transitions, got %d", len(got))
	}

	// Third batch
	got, _ = f.Drain()
	if len(got) != 1 || !got[0].Time.Equal(start.Add(10*time.Millisecond)) {
		t.Errorf("batch 2: unexpected transitions %+v", got)
	}

	// Exhausted
	got, err = f.Drain()
	if err != nil || got != nil {
		t.Errorf("exhausted: expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestFakeWatcherLevelFollowsDrain(t *testing.T) {
	f := NewFakeWatcher([]logic.Transition{edge(0, logic.High)}, []logic.Transition{edge(5, logic.Low)})

	f.Drain()
	if level, _ := f.Level(); level != logic.High {
		t.Errorf("after batch 0: expected HIGH, got %s", level)
	}
	f.Drain()
	if level, _ := f.Level(); level != logic.Low {
		t.Errorf("after batch 1: expected LOW, got %s", level)
	}
}

func TestFakeWatcherError(t *testing.T) {
	f := NewFakeWatcher([]logic.Transition{edge(0, logic.High)})
	f.DrainError = errors.New("simulated error")

	_, err := f.Drain()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}

	f.LevelError = errors.New("level error")
	if _, err := f.Level(); err == nil {
		t.Error("expected level error to be returned")
	}
}

func TestFakeWatcherClose(t *testing.T) {
	f := NewFakeWatcher()

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeWatcherReset(t *testing.T) {
	f := NewFakeWatcher([]logic.Transition{edge(0, logic.High)})

	f.Drain()
	f.Reset()

	got, _ := f.Drain()
	if len(got) != 1 {
		t.Errorf("after reset: expected first batch again, got %d transitions", len(got))
	}
}

func TestFakeWatcherImplementsWatcher(t *testing.T) {
	var _ Watcher = NewFakeWatcher()
}

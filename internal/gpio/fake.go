package gpio

import "github.com/sweeney/dutycycle-sensor/internal/logic"

// FakeWatcher is a test double that returns scripted edge batches.
type FakeWatcher struct {
	// Batches contains scripted transitions. Each call to Drain() consumes
	// the next batch; once exhausted, Drain returns no transitions.
	Batches [][]logic.Transition

	// index tracks current position in Batches
	index int

	// Current is returned by Level and follows the last drained transition.
	Current logic.Level

	// Closed tracks if Close was called
	Closed bool

	// DrainError, if set, will be returned by Drain()
	DrainError error

	// LevelError, if set, will be returned by Level()
	LevelError error
}

// NewFakeWatcher creates a FakeWatcher with the given batches.
func NewFakeWatcher(batches ...[]logic.Transition) *FakeWatcher {
	return &FakeWatcher{Batches: batches}
}

// Drain returns the next scripted batch.
func (f *FakeWatcher) Drain() ([]logic.Transition, error) {
	if f.DrainError != nil {
		return nil, f.DrainError
	}

	if f.index >= len(f.Batches) {
		return nil, nil
	}

	batch := f.Batches[f.index]
	f.index++
	if len(batch) > 0 {
		f.Current = batch[len(batch)-1].Level
	}
	return batch, nil
}

// Level returns the level of the last drained transition.
func (f *FakeWatcher) Level() (logic.Level, error) {
	if f.LevelError != nil {
		return logic.Low, f.LevelError
	}
	return f.Current, nil
}

// Close marks the watcher as closed.
func (f *FakeWatcher) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the watcher to the first batch.
func (f *FakeWatcher) Reset() {
	f.index = 0
	f.Closed = false
}

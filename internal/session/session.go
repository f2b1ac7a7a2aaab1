// Package session gives every client its own pipeline state.
//
// A Session serializes its runs: one batch runs to completion before the next starts.
// Distinct sessions never share a table store.
package session

import (
	"context"
	"sync"

	"github.com/leengari/cohort-sql/internal/domain/run"
	"github.com/leengari/cohort-sql/internal/engine"
	"github.com/leengari/cohort-sql/internal/pipeline"
	"github.com/leengari/cohort-sql/internal/storage"
)

type Session struct {
	ID      string
	Catalog *storage.Catalog

	mu     sync.Mutex
	state  *pipeline.State
	engine *engine.Engine
}

// RunStep executes step i
func (s *Session) RunStep(ctx context.Context, i int) (*run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RunStep(ctx, s.state, i)
}

// RunRange executes steps [from, to)
func (s *Session) RunRange(ctx context.Context, from, to int) (*run.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RunRange(ctx, s.state, from, to)
}

// Edit replaces the text of step i
func (s *Session) Edit(i int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Edit(i, text)
}

// Reset restores the default text of step i
func (s *Session) Reset(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Reset(i)
}

// View runs fn with exclusive access to the state
func (s *Session) View(fn func(st *pipeline.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

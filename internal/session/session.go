// Package session owns the per-viewer state: each session has its own viewport
// and processes one basin selection at a time.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/basinview/internal/artifact"
	"github.com/chrissnell/basinview/internal/bundle"
	"github.com/chrissnell/basinview/internal/stats"
	"github.com/chrissnell/basinview/internal/viewport"
)

// Transitioner decides viewports for selections
type Transitioner interface {
	Initial() viewport.State
	Transition(source artifact.DataSource, basin artifact.BasinID) (viewport.State, error)
}

// Aggregator assembles display bundles
type Aggregator interface {
	Aggregate(source artifact.DataSource, basin artifact.BasinID) (*bundle.Bundle, error)
}

// Deps are the shared, stateless collaborators of every session
type Deps struct {
	Policy     Transitioner
	Aggregator Aggregator
	Deriver    stats.Deriver
}

// View is everything the presentation layer renders for one selection.
// Statistic is nil for the overview and when StatisticError is set.
type View struct {
	Viewport       viewport.State
	Bundle         *bundle.Bundle
	Statistic      *stats.Statistic
	StatisticError error
	Summary        []stats.ClassChange
}

// Session is one viewer's state
type Session struct {
	ID string

	mu    sync.Mutex
	deps  *Deps
	state viewport.State

	lastActive atomic.Int64
	now        func() time.Time
}

// New creates a session whose viewport starts at the overview
func New(id string, deps *Deps) *Session {
	s := &Session{
		ID:    id,
		deps:  deps,
		state: deps.Policy.Initial(),
		now:   time.Now,
	}
	s.touch()
	return s
}

// Viewport returns the current viewport
func (s *Session) Viewport() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns when the session last handled a request
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// Select processes a basin selection: it computes the next viewport, loads the
// bundle and derives the statistic. The viewport is replaced only when both the
// transition and the bundle succeed; a statistic failure is reported in the View.
func (s *Session) Select(source artifact.DataSource, basin artifact.BasinID) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	next, err := s.deps.Policy.Transition(source, basin)
	if err != nil {
		return nil, err
	}

	b, err := s.deps.Aggregator.Aggregate(source, basin)
	if err != nil {
		return nil, err
	}

	s.state = next

	view := &View{
		Viewport: next,
		Bundle:   b,
	}
	if basin.IsAll() {
		return view, nil
	}

	stat, err := s.deps.Deriver.DeriveConversion(b.ChangeTable)
	if err != nil {
		view.StatisticError = err
	} else {
		view.Statistic = &stat
	}
	view.Summary = stats.NewMatrix(b.ChangeTable).Summary()

	return view, nil
}

package source

import (
	"context"
	"sync"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/ladder/ast"
)

// MemorySource serves ladders held in memory.
type MemorySource struct {
	mu       sync.Mutex
	ladders  []*ast.Ladder
	watchers []chan engine.LadderEvent
}

// NewMemorySource creates a new in-memory ladder source.
func NewMemorySource(ladders ...*ast.Ladder) *MemorySource {
	return &MemorySource{ladders: ladders}
}

// LoadLadders returns a copy of the ladders stored in memory.
func (s *MemorySource) LoadLadders(ctx context.Context) ([]*ast.Ladder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ladders := make([]*ast.Ladder, len(s.ladders))
	copy(ladders, s.ladders)
	return ladders, nil
}

// Watch returns a channel that receives an event each time SetLadders is
// called. The channel is closed when the context is cancelled.
func (s *MemorySource) Watch(ctx context.Context) (<-chan engine.LadderEvent, error) {
	ch := make(chan engine.LadderEvent, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// SetLadders replaces the ladders and notifies watchers. A watcher with a
// pending notification is not sent a second one.
func (s *MemorySource) SetLadders(ladders ...*ast.Ladder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ladders = ladders
	for _, w := range s.watchers {
		select {
		case w <- engine.LadderEvent{Type: engine.LadderEventModified}:
		default:
		}
	}
}

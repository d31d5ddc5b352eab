package source

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/ladder/ast"
)

// MultiSource concatenates the ladders of several sources. Later sources
// are loaded after earlier ones; duplicate names are rejected by the engine.
type MultiSource struct {
	sources []engine.LadderSource
}

// NewMultiSource combines sources. Nil sources are skipped.
func NewMultiSource(sources ...engine.LadderSource) *MultiSource {
	m := &MultiSource{}
	for _, s := range sources {
		if s != nil {
			m.sources = append(m.sources, s)
		}
	}
	return m
}

// LoadLadders loads every source in order.
func (m *MultiSource) LoadLadders(ctx context.Context) ([]*ast.Ladder, error) {
	var all []*ast.Ladder
	for i, s := range m.sources {
		ladders, err := s.LoadLadders(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		all = append(all, ladders...)
	}
	return all, nil
}

// Watch fans the events of every source into one channel, which is closed
// once all source channels are closed.
func (m *MultiSource) Watch(ctx context.Context) (<-chan engine.LadderEvent, error) {
	ctx, cancel := context.WithCancel(ctx)

	chans := make([]<-chan engine.LadderEvent, 0, len(m.sources))
	for i, s := range m.sources {
		ch, err := s.Watch(ctx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		chans = append(chans, ch)
	}

	out := make(chan engine.LadderEvent, len(chans)+1)
	var wg sync.WaitGroup
	for _, ch := range chans {
		wg.Add(1)
		go func(ch <-chan engine.LadderEvent) {
			defer wg.Done()
			for ev := range ch {
				select {
				case out <- ev:
				case <-ctx.Done():
				}
			}
		}(ch)
	}

	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()

	return out, nil
}

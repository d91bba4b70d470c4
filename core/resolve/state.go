// Package resolve holds the published corpus and resolves references
// against it.
//
// A State starts uninitialized. Publish (or Load) builds a Snapshot off to
// the side and swaps it in with a single atomic store; from then on the
// State is ready for good. Readers never take locks and never see a
// partially built corpus: they either get ErrNotReady or a complete
// Snapshot, and keep using that Snapshot for the rest of their call even if
// a reload publishes a newer one meanwhile.
package resolve

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FocuswithJustin/VerseTip/core/bookindex"
	"github.com/FocuswithJustin/VerseTip/core/corpus"
	"github.com/FocuswithJustin/VerseTip/core/errors"
)

// Loader produces a validated corpus.
type Loader func(ctx context.Context) (*corpus.Corpus, error)

// FileLoader loads the corpus at path with corpus.Load.
func FileLoader(path string) Loader {
	return func(ctx context.Context) (*corpus.Corpus, error) {
		return corpus.Load(ctx, path)
	}
}

// Option configures a State.
type Option func(*State)

// WithMatcher sets the matcher used by every index the State builds.
func WithMatcher(m bookindex.Matcher) Option {
	return func(s *State) { s.matcher = m }
}

// State is the process-scoped corpus holder. The zero value is not usable;
// call NewState.
type State struct {
	snap    atomic.Pointer[Snapshot]
	matcher bookindex.Matcher

	mu         sync.Mutex // serializes publication
	generation uint64
	ready      chan struct{}
}

// NewState returns an uninitialized State.
func NewState(opts ...Option) *State {
	s := &State{ready: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish indexes c and makes it the current snapshot. Source describes
// where c came from and is informational only.
func (s *State) Publish(c *corpus.Corpus, source string) *Snapshot {
	sn := &Snapshot{
		Corpus:      c,
		Index:       bookindex.New(c, s.matcher),
		Fingerprint: corpus.Fingerprint(c),
		Source:      source,
		LoadedAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	sn.Generation = s.generation
	first := s.snap.Load() == nil
	s.snap.Store(sn)
	if first {
		close(s.ready)
	}
	return sn
}

// Load runs loader and publishes its corpus. On any error, including
// cancellation, nothing is published and the current snapshot stays.
func (s *State) Load(ctx context.Context, loader Loader, source string) (*Snapshot, error) {
	c, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Publish(c, source), nil
}

// LoadAsync runs Load in a new goroutine. The returned channel receives the
// outcome once and is then closed.
func (s *State) LoadAsync(ctx context.Context, loader Loader, source string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		_, err := s.Load(ctx, loader, source)
		done <- err
	}()
	return done
}

// Ready reports whether a snapshot has been published.
func (s *State) Ready() bool {
	return s.snap.Load() != nil
}

// Wait blocks until a snapshot is published or ctx is done.
func (s *State) Wait(ctx context.Context) (*Snapshot, error) {
	select {
	case <-s.ready:
		return s.snap.Load(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshot returns the current snapshot, or nil before the first publish.
func (s *State) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Resolve resolves reference against the current snapshot. Before the
// first publish every reference is unresolved with ErrNotReady.
func (s *State) Resolve(reference string) Result {
	sn := s.snap.Load()
	if sn == nil {
		return unresolved(reference, errors.ErrNotReady)
	}
	return sn.Resolve(reference)
}

// NameScore is Snapshot.NameScore on the current snapshot. Before the first
// publish every name is accepted with score 0, which makes the scanner fall
// back to the longest name run.
func (s *State) NameScore(name string) (float64, bool) {
	sn := s.snap.Load()
	if sn == nil {
		return 0, true
	}
	return sn.NameScore(name)
}

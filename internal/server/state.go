package server

import (
	"context"
	"sync"

	"github.com/leapstack-labs/plotlogic/internal/scene"
	"github.com/leapstack-labs/plotlogic/internal/server/notifier"
)

// LoadFunc reads the scene from its source, typically the config file.
type LoadFunc func() (*scene.Scene, error)

// State is the scene shared by every request. Updates publish a new
// revision on the notifier.
type State struct {
	mu       sync.RWMutex
	scene    *scene.Scene
	load     LoadFunc
	opts     scene.RenderOptions
	notifier *notifier.Notifier
}

// NewState creates a State holding s.
func NewState(s *scene.Scene, load LoadFunc, opts scene.RenderOptions, n *notifier.Notifier) *State {
	if s == nil {
		s = scene.Default()
	}
	if n == nil {
		n = notifier.New()
	}
	s = s.Clone()
	s.ApplyDefaults()
	return &State{scene: s, load: load, opts: opts, notifier: n}
}

// Scene returns a copy of the current scene.
func (st *State) Scene() *scene.Scene {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.scene.Clone()
}

// Revision returns the revision of the current scene.
func (st *State) Revision() uint64 {
	return st.notifier.Revision()
}

// Notifier returns the notifier that publishes scene revisions.
func (st *State) Notifier() *notifier.Notifier {
	return st.notifier
}

// Set validates s, clamps its parameters to their sliders and makes it
// the current scene.
func (st *State) Set(s *scene.Scene) error {
	s = s.Clone()
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	s.Clamp()

	st.mu.Lock()
	st.scene = s
	st.mu.Unlock()

	st.notifier.Broadcast()
	return nil
}

// Reload re-reads the scene with the configured LoadFunc.
func (st *State) Reload() error {
	if st.load == nil {
		return nil
	}
	s, err := st.load()
	if err != nil {
		return err
	}
	return st.Set(s)
}

// Render renders a copy of the current scene after applying mutate to it.
func (st *State) Render(ctx context.Context, mutate func(*scene.Scene) error) (*scene.Rendered, error) {
	s := st.Scene()
	if mutate != nil {
		if err := mutate(s); err != nil {
			return nil, err
		}
	}
	return scene.Render(ctx, s, st.opts)
}

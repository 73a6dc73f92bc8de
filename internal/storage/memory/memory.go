// Package memory is a process-local record store, used for tests and for
// sessions that do not need to survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/storage"
)

// Store keeps profiles and templates in maps guarded by a mutex.
type Store struct {
	mu           sync.RWMutex
	profiles     map[int64]model.Profile
	templates    map[int64]model.Template
	nextProfile  int64
	nextTemplate int64
	profileHub   *storage.Hub[[]model.Profile]
	templateHub  *storage.Hub[[]model.Template]
	now          func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		profiles:     make(map[int64]model.Profile),
		templates:    make(map[int64]model.Template),
		nextProfile:  1,
		nextTemplate: 1,
		profileHub:   storage.NewHub[[]model.Profile](),
		templateHub:  storage.NewHub[[]model.Template](),
		now:          time.Now,
	}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) CreateProfile(_ context.Context, p *model.Profile) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	id := s.nextProfile
	s.nextProfile++
	stored := p.Clone()
	stored.ID = id
	s.profiles[id] = stored
	s.profileHub.Publish(s.profileSnapshotLocked())
	s.mu.Unlock()
	return id, nil
}

func (s *Store) GetProfile(_ context.Context, id int64) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", id, storage.ErrNotFound)
	}
	clone := p.Clone()
	return &clone, nil
}

func (s *Store) ListProfiles(_ context.Context) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileSnapshotLocked(), nil
}

func (s *Store) UpdateProfile(_ context.Context, p *model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.profiles[p.ID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("profile %d: %w", p.ID, storage.ErrNotFound)
	}
	s.profiles[p.ID] = p.Clone()
	s.profileHub.Publish(s.profileSnapshotLocked())
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.profiles[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("profile %d: %w", id, storage.ErrNotFound)
	}
	delete(s.profiles, id)
	s.profileHub.Publish(s.profileSnapshotLocked())
	s.mu.Unlock()
	return nil
}

func (s *Store) CreateTemplate(_ context.Context, t *model.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	id := s.nextTemplate
	s.nextTemplate++
	stored := t.Clone()
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	s.templates[id] = stored
	s.templateHub.Publish(s.templateSnapshotLocked())
	s.mu.Unlock()
	return id, nil
}

func (s *Store) GetTemplate(_ context.Context, id int64) (*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %d: %w", id, storage.ErrNotFound)
	}
	clone := t.Clone()
	return &clone, nil
}

func (s *Store) ListTemplates(_ context.Context) ([]model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templateSnapshotLocked(), nil
}

func (s *Store) UpdateTemplate(_ context.Context, t *model.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	existing, ok := s.templates[t.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("template %d: %w", t.ID, storage.ErrNotFound)
	}
	updated := t.Clone()
	updated.Document = existing.Document
	updated.CreatedAt = existing.CreatedAt
	s.templates[t.ID] = updated
	s.templateHub.Publish(s.templateSnapshotLocked())
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteTemplate(_ context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.templates[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("template %d: %w", id, storage.ErrNotFound)
	}
	delete(s.templates, id)
	s.templateHub.Publish(s.templateSnapshotLocked())
	s.mu.Unlock()
	return nil
}

func (s *Store) SubscribeProfiles(ctx context.Context) (<-chan []model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profileHub.Subscribe(ctx, s.profileSnapshotLocked()), nil
}

func (s *Store) SubscribeTemplates(ctx context.Context) (<-chan []model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templateHub.Subscribe(ctx, s.templateSnapshotLocked()), nil
}

// Close ends all subscriptions.
func (s *Store) Close() error {
	s.profileHub.Close()
	s.templateHub.Close()
	return nil
}

func (s *Store) profileSnapshotLocked() []model.Profile {
	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// templateSnapshotLocked omits document bytes, matching ListTemplates.
func (s *Store) templateSnapshotLocked() []model.Template {
	out := make([]model.Template, 0, len(s.templates))
	for _, t := range s.templates {
		clone := t.Clone()
		clone.Document = nil
		out = append(out, clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

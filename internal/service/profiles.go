package service

import (
	"context"
	"strings"

	"github.com/a3tai/pdf-template-filler/internal/model"
)

// CreateProfile stores a new profile.
func (s *Service) CreateProfile(ctx context.Context, name string, fields map[string]string) (*model.Profile, error) {
	p := &model.Profile{Name: strings.TrimSpace(name), Fields: cleanValues(fields)}
	id, err := s.store.CreateProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	s.logger.Info("created profile", "profile", p.Name, "id", id)
	return p, nil
}

// GetProfile returns a profile by id.
func (s *Service) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

// ListProfiles returns all profiles.
func (s *Service) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return s.store.ListProfiles(ctx)
}

// UpdateProfile renames the profile when name is non-empty, sets the values
// in set and removes the keys in remove.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name string, set map[string]string,
	remove []string,
) (*model.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		p.Name = name
	}
	if p.Fields == nil {
		p.Fields = make(map[string]string)
	}
	for k, v := range cleanValues(set) {
		p.Fields[k] = v
	}
	for _, k := range remove {
		delete(p.Fields, strings.TrimSpace(k))
	}
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProfile removes a profile. Templates are unaffected since mappings
// refer to profile keys, not profiles.
func (s *Service) DeleteProfile(ctx context.Context, id int64) error {
	return s.store.DeleteProfile(ctx, id)
}

// cleanValues trims keys and drops empty ones.
func cleanValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if k = strings.TrimSpace(k); k != "" {
			out[k] = v
		}
	}
	return out
}

// Package storage defines the record store for profiles and templates and
// the snapshot subscriptions front ends use to stay current.
package storage

import (
	"context"
	"errors"

	"github.com/a3tai/pdf-template-filler/internal/model"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// ProfileStore persists profiles. Ids are assigned on create.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *model.Profile) (int64, error)
	GetProfile(ctx context.Context, id int64) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	UpdateProfile(ctx context.Context, p *model.Profile) error
	DeleteProfile(ctx context.Context, id int64) error
}

// TemplateStore persists templates. Ids are assigned on create.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *model.Template) (int64, error)
	// GetTemplate returns the full template including its document bytes.
	GetTemplate(ctx context.Context, id int64) (*model.Template, error)
	// ListTemplates returns all templates without their document bytes.
	ListTemplates(ctx context.Context) ([]model.Template, error)
	// UpdateTemplate rewrites name, fields and mappings in one write. The
	// stored document bytes are never touched.
	UpdateTemplate(ctx context.Context, t *model.Template) error
	DeleteTemplate(ctx context.Context, id int64) error
}

// Subscriber delivers the current snapshot of a collection followed by a
// fresh snapshot after every mutation. The channel is closed when ctx is
// done. Slow readers only ever see the latest snapshot.
type Subscriber interface {
	SubscribeProfiles(ctx context.Context) (<-chan []model.Profile, error)
	SubscribeTemplates(ctx context.Context) (<-chan []model.Template, error)
}

// Store is a complete record store.
type Store interface {
	ProfileStore
	TemplateStore
	Subscriber
	Close() error
}

// Package redis is a record store backed by a Redis server, for deployments
// where several front ends share the same profiles and templates.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	lowimpl "github.com/redis/go-redis/v9"

	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/storage"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "pdftf"

const (
	recordField   = "record"
	documentField = "document"
)

// Conf holds connection settings.
type Conf struct {
	Addr   string
	PW     string
	DB     int
	Prefix string
}

// Store keeps each profile as a JSON string and each template as a hash
// holding its JSON record and its document bytes.
type Store struct {
	conf        Conf
	logger      *slog.Logger
	profileHub  *storage.Hub[[]model.Profile]
	templateHub *storage.Hub[[]model.Template]

	// implementation details, not exported
	internal *lowimpl.Client
}

var _ storage.Store = (*Store)(nil)

// NewStore connects to the server described by conf and verifies it
// responds.
func NewStore(ctx context.Context, conf Conf, logger *slog.Logger) (*Store, error) {
	if conf.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if conf.Prefix == "" {
		conf.Prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := lowimpl.NewClient(&lowimpl.Options{
		Addr:     conf.Addr,
		Password: conf.PW,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", conf.Addr, err)
	}
	logger.Info("redis store initialized", "addr", conf.Addr, "db", conf.DB)

	return &Store{
		conf:        conf,
		logger:      logger,
		profileHub:  storage.NewHub[[]model.Profile](),
		templateHub: storage.NewHub[[]model.Template](),
		internal:    client,
	}, nil
}

// Close ends subscriptions and the connection.
func (s *Store) Close() error {
	s.profileHub.Close()
	s.templateHub.Close()
	if s.internal == nil {
		return nil
	}
	return s.internal.Close()
}

func (s *Store) key(parts ...string) string {
	k := s.conf.Prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) profileKey(id int64) string {
	return s.key("profile", strconv.FormatInt(id, 10))
}

func (s *Store) templateKey(id int64) string {
	return s.key("template", strconv.FormatInt(id, 10))
}

//---- Profiles ----

func (s *Store) CreateProfile(ctx context.Context, p *model.Profile) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	id, err := s.internal.Incr(ctx, s.key("profiles", "seq")).Result()
	if err != nil {
		return 0, fmt.Errorf("allocating profile id: %w", err)
	}
	stored := p.Clone()
	stored.ID = id
	data, err := storage.EncodeJSON("profile", stored)
	if err != nil {
		return 0, err
	}

	_, err = s.internal.TxPipelined(ctx, func(pipe lowimpl.Pipeliner) error {
		pipe.Set(ctx, s.profileKey(id), data, 0)
		pipe.SAdd(ctx, s.key("profiles"), id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("writing profile: %w", err)
	}
	s.publishProfiles(ctx)
	return id, nil
}

func (s *Store) GetProfile(ctx context.Context, id int64) (*model.Profile, error) {
	val, err := s.internal.Get(ctx, s.profileKey(id)).Bytes()
	if errors.Is(err, lowimpl.Nil) {
		return nil, fmt.Errorf("profile %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	var p model.Profile
	if err := storage.DecodeJSON("profile", val, &p); err != nil {
		return nil, err
	}
	if p.Fields == nil {
		p.Fields = map[string]string{}
	}
	return &p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	ids, err := s.ids(ctx, s.key("profiles"))
	if err != nil {
		return nil, err
	}
	cmds := make([]*lowimpl.StringCmd, len(ids))
	_, err = s.internal.Pipelined(ctx, func(pipe lowimpl.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Get(ctx, s.profileKey(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, lowimpl.Nil) {
		return nil, fmt.Errorf("reading profiles: %w", err)
	}

	profiles := make([]model.Profile, 0, len(ids))
	for _, cmd := range cmds {
		val, err := cmd.Bytes()
		if errors.Is(err, lowimpl.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}
		var p model.Profile
		if err := storage.DecodeJSON("profile", val, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p *model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := storage.EncodeJSON("profile", p)
	if err != nil {
		return err
	}
	key := s.profileKey(p.ID)
	err = s.internal.Watch(ctx, func(tx *lowimpl.Tx) error {
		if err := requireKey(ctx, tx, key, "profile", p.ID); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe lowimpl.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	s.publishProfiles(ctx)
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, id int64) error {
	if err := s.remove(ctx, s.profileKey(id), s.key("profiles"), "profile", id); err != nil {
		return err
	}
	s.publishProfiles(ctx)
	return nil
}

//---- Templates ----

func (s *Store) CreateTemplate(ctx context.Context, t *model.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	id, err := s.internal.Incr(ctx, s.key("templates", "seq")).Result()
	if err != nil {
		return 0, fmt.Errorf("allocating template id: %w", err)
	}
	stored := t.Clone()
	stored.ID = id
	record := storage.NewTemplateRecord(&stored)
	data, err := storage.EncodeJSON("template", record)
	if err != nil {
		return 0, err
	}

	_, err = s.internal.TxPipelined(ctx, func(pipe lowimpl.Pipeliner) error {
		pipe.HSet(ctx, s.templateKey(id), recordField, data, documentField, t.Document)
		pipe.SAdd(ctx, s.key("templates"), id)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("writing template: %w", err)
	}
	s.publishTemplates(ctx)
	return id, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	vals, err := s.internal.HMGet(ctx, s.templateKey(id), recordField, documentField).Result()
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	recordVal, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("template %d: %w", id, storage.ErrNotFound)
	}
	var record storage.TemplateRecord
	if err := storage.DecodeJSON("template", []byte(recordVal), &record); err != nil {
		return nil, err
	}
	documentVal, _ := vals[1].(string)
	t := record.Template([]byte(documentVal))
	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]model.Template, error) {
	ids, err := s.ids(ctx, s.key("templates"))
	if err != nil {
		return nil, err
	}
	cmds := make([]*lowimpl.StringCmd, len(ids))
	_, err = s.internal.Pipelined(ctx, func(pipe lowimpl.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGet(ctx, s.templateKey(id), recordField)
		}
		return nil
	})
	if err != nil && !errors.Is(err, lowimpl.Nil) {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	templates := make([]model.Template, 0, len(ids))
	for _, cmd := range cmds {
		val, err := cmd.Bytes()
		if errors.Is(err, lowimpl.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading template: %w", err)
		}
		var record storage.TemplateRecord
		if err := storage.DecodeJSON("template", val, &record); err != nil {
			return nil, err
		}
		templates = append(templates, record.Template(nil))
	}
	return templates, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *model.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	key := s.templateKey(t.ID)
	err := s.internal.Watch(ctx, func(tx *lowimpl.Tx) error {
		raw, err := tx.HGet(ctx, key, recordField).Bytes()
		if errors.Is(err, lowimpl.Nil) {
			return fmt.Errorf("template %d: %w", t.ID, storage.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var existing storage.TemplateRecord
		if err := storage.DecodeJSON("template", raw, &existing); err != nil {
			return err
		}

		record := storage.NewTemplateRecord(t)
		record.CreatedAt = existing.CreatedAt
		data, err := storage.EncodeJSON("template", record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe lowimpl.Pipeliner) error {
			pipe.HSet(ctx, key, recordField, data)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	s.publishTemplates(ctx)
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	if err := s.remove(ctx, s.templateKey(id), s.key("templates"), "template", id); err != nil {
		return err
	}
	s.publishTemplates(ctx)
	return nil
}

//---- Subscriptions ----

func (s *Store) SubscribeProfiles(ctx context.Context) (<-chan []model.Profile, error) {
	return s.profileHub.SubscribeWith(ctx, s.ListProfiles)
}

func (s *Store) SubscribeTemplates(ctx context.Context) (<-chan []model.Template, error) {
	return s.templateHub.SubscribeWith(ctx, s.ListTemplates)
}

func (s *Store) publishProfiles(ctx context.Context) {
	if err := s.profileHub.Refresh(ctx, s.ListProfiles); err != nil {
		s.logger.Warn("failed to publish profile snapshot", "error", err)
	}
}

func (s *Store) publishTemplates(ctx context.Context) {
	if err := s.templateHub.Refresh(ctx, s.ListTemplates); err != nil {
		s.logger.Warn("failed to publish template snapshot", "error", err)
	}
}

//---- Helpers ----

// ids returns the members of the index set in ascending order.
func (s *Store) ids(ctx context.Context, indexKey string) ([]int64, error) {
	members, err := s.internal.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", indexKey, err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			s.logger.Warn("skipping malformed index member", "key", indexKey, "member", m)
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) remove(ctx context.Context, key, indexKey, kind string, id int64) error {
	var deleted *lowimpl.IntCmd
	_, err := s.internal.TxPipelined(ctx, func(pipe lowimpl.Pipeliner) error {
		deleted = pipe.Del(ctx, key)
		pipe.SRem(ctx, indexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

func requireKey(ctx context.Context, tx *lowimpl.Tx, key, kind string, id int64) error {
	n, err := tx.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}

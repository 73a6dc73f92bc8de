// Package service wires the analyzer, editor, resolver and generator to a
// record store for use by front ends.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/a3tai/pdf-template-filler/internal/analyzer"
	"github.com/a3tai/pdf-template-filler/internal/config"
	"github.com/a3tai/pdf-template-filler/internal/editor"
	"github.com/a3tai/pdf-template-filler/internal/generator"
	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/mapping"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
	"github.com/a3tai/pdf-template-filler/internal/security"
	"github.com/a3tai/pdf-template-filler/internal/storage"
)

// Options configures a Service. Store and WorkDirectory are required; the
// pdfcpu and ledongthuc collaborators are used for any left nil.
type Options struct {
	Store         storage.Store
	Inspector     pdf.FormInspector
	Engine        pdf.Engine
	Renderer      pdf.Renderer
	WorkDirectory string
	MaxFileSize   int64
	Padding       float64
	Logger        *slog.Logger
}

// Service is the entry point for every template operation.
type Service struct {
	store     storage.Store
	analyzer  *analyzer.Analyzer
	generator *generator.Generator
	resolver  *mapping.Resolver
	renderer  pdf.Renderer
	validator *pdf.Validator
	paths     *security.PathValidator
	padding   float64
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*editor.Editor
}

// New creates a service from opts.
func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("store cannot be nil")
	}
	paths, err := security.NewPathValidator(opts.WorkDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Inspector == nil {
		opts.Inspector = pdf.NewPDFCPUInspector(logger)
	}
	if opts.Engine == nil {
		opts.Engine = pdf.NewPDFCPUEngine(logger)
	}
	if opts.Renderer == nil {
		opts.Renderer = pdf.NewGeometryRenderer()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = config.DefaultMaxFileSize
	}
	if opts.Padding < 0 {
		opts.Padding = geometry.DefaultPadding
	}

	return &Service{
		store:     opts.Store,
		analyzer:  analyzer.New(opts.Inspector, logger),
		generator: generator.New(opts.Engine, logger),
		resolver:  mapping.NewResolver(opts.Store, logger),
		renderer:  opts.Renderer,
		validator: pdf.NewValidator(opts.MaxFileSize),
		paths:     paths,
		padding:   opts.Padding,
		logger:    logger,
		sessions:  make(map[int64]*editor.Editor),
	}, nil
}

// NewFromConfig opens the configured store and creates a service over it.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := New(Options{
		Store:         store,
		WorkDirectory: cfg.WorkDirectory,
		MaxFileSize:   cfg.MaxFileSize,
		Padding:       cfg.Padding,
		Logger:        logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return svc, nil
}

// Store returns the underlying record store.
func (s *Service) Store() storage.Store {
	return s.store
}

// WorkDirectory returns the directory uploads and outputs are confined to.
func (s *Service) WorkDirectory() string {
	return s.paths.Root()
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Editor returns the editing session for a template, opening it on first
// use. Sessions start at page 0 laid out at the page's natural size until a
// front end reports its container width.
func (s *Service) Editor(ctx context.Context, templateID int64) (*editor.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editorLocked(ctx, templateID)
}

func (s *Service) editorLocked(ctx context.Context, templateID int64) (*editor.Editor, error) {
	if ed, ok := s.sessions[templateID]; ok {
		return ed, nil
	}
	tpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	ed := editor.New(tpl, s.store, s.renderer, s.logger)
	ed.SetPadding(s.padding)
	if _, err := ed.Layout(ctx, 0); err != nil {
		s.logger.Warn("cannot lay out template", "template", tpl.Name, "error", err)
	}
	s.sessions[templateID] = ed
	return ed, nil
}

// current returns the latest template along with its session, if open.
func (s *Service) currentLocked(ctx context.Context, templateID int64) (*model.Template, *editor.Editor, error) {
	if ed, ok := s.sessions[templateID]; ok {
		tpl := ed.Template()
		return &tpl, ed, nil
	}
	tpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, nil, err
	}
	return tpl, nil, nil
}

func (s *Service) closeSession(templateID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, templateID)
}

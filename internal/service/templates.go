package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/a3tai/pdf-template-filler/internal/model"
)

// UploadTemplate reads the PDF at path inside the working directory,
// analyzes it and stores the resulting template. name defaults to the file
// name without its extension. Nothing is stored when analysis fails.
func (s *Service) UploadTemplate(ctx context.Context, name, path string) (*model.Template, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(resolved), filepath.Ext(resolved))
	}
	return s.ImportTemplate(ctx, name, data)
}

// ImportTemplate analyzes document bytes and stores the resulting template.
func (s *Service) ImportTemplate(ctx context.Context, name string, data []byte) (*model.Template, error) {
	if err := s.validator.ValidateBytes(data); err != nil {
		return nil, model.NewAnalysisError(err)
	}
	tpl, err := s.analyzer.Analyze(ctx, name, data)
	if err != nil {
		return nil, err
	}
	id, err := s.store.CreateTemplate(ctx, tpl)
	if err != nil {
		return nil, err
	}
	tpl.ID = id
	s.logger.Info("created template", "template", tpl.Name, "id", id, "fields", len(tpl.Fields))
	return tpl, nil
}

// GetTemplate returns the latest state of a template.
func (s *Service) GetTemplate(ctx context.Context, id int64) (*model.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, _, err := s.currentLocked(ctx, id)
	return tpl, err
}

// ListTemplates returns all templates without their document bytes.
func (s *Service) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return s.store.ListTemplates(ctx)
}

// RenameTemplate changes a template's name.
func (s *Service) RenameTemplate(ctx context.Context, id int64, name string) (*model.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("template name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ed, err := s.currentLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl.Name = name
	if err := s.store.UpdateTemplate(ctx, tpl); err != nil {
		return nil, err
	}
	if ed != nil {
		if err := ed.Replace(tpl); err != nil {
			delete(s.sessions, id)
		}
	}
	return tpl, nil
}

// DeleteTemplate removes a template and closes its editing session.
func (s *Service) DeleteTemplate(ctx context.Context, id int64) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	s.closeSession(id)
	return nil
}

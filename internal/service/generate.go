package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/pdf-template-filler/internal/generator"
	"github.com/a3tai/pdf-template-filler/internal/model"
)

// GenerateResult describes a generated document written to disk.
type GenerateResult struct {
	Path        string
	FileName    string
	ContentType string
	Size        int
	Warnings    []*model.FillError
}

// Generate fills a template with a profile and returns the document without
// writing it.
func (s *Service) Generate(ctx context.Context, templateID, profileID int64) (*generator.Result, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, tpl, profile)
}

// GenerateToFile fills a template with a profile and writes the document
// into the working directory under its output file name. The file appears
// complete or not at all.
func (s *Service) GenerateToFile(ctx context.Context, templateID, profileID int64) (*GenerateResult, error) {
	result, err := s.Generate(ctx, templateID, profileID)
	if err != nil {
		return nil, err
	}

	path, err := s.paths.OutputPath(result.FileName)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, result.Data); err != nil {
		return nil, err
	}

	s.logger.Info("wrote generated document", "path", path, "bytes", len(result.Data))
	return &GenerateResult{
		Path:        path,
		FileName:    result.FileName,
		ContentType: result.ContentType,
		Size:        len(result.Data),
		Warnings:    result.Warnings,
	}, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".generate-*.pdf")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving output file into place: %w", err)
	}
	return nil
}

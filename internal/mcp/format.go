package mcp

import (
	"fmt"

	"github.com/a3tai/pdf-template-filler/internal/descriptions"
	"github.com/a3tai/pdf-template-filler/internal/editor"
	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/service"
)

func formatBox(box geometry.Rect) string {
	return fmt.Sprintf("x=%g y=%g width=%g height=%g", box.X, box.Y, box.Width, box.Height)
}

func formatProfileValues(p *model.Profile) string {
	if len(p.Fields) == 0 {
		return "No values\n"
	}
	text := fmt.Sprintf("Values (%d):\n", len(p.Fields))
	for _, key := range p.Keys() {
		text += fmt.Sprintf("   %s: %s\n", key, p.Fields[key])
	}
	return text
}

func formatProfileList(profiles []model.Profile) string {
	if len(profiles) == 0 {
		return "No profiles stored. Use 'profile_create' to add one."
	}
	text := fmt.Sprintf("Found %d profile(s):\n", len(profiles))
	for i := range profiles {
		p := &profiles[i]
		text += fmt.Sprintf("%d. #%d %s (%d values)\n", i+1, p.ID, p.Name, len(p.Fields))
	}
	return text
}

func formatTemplateList(templates []model.Template) string {
	if len(templates) == 0 {
		return "No templates stored. Use 'template_upload' to add one."
	}
	text := fmt.Sprintf("Found %d template(s):\n", len(templates))
	for i, t := range templates {
		text += fmt.Sprintf("%d. #%d %s\n", i+1, t.ID, t.Name)
		text += fmt.Sprintf("   Fields: %d, Mappings: %d\n", len(t.Fields), len(t.Mappings))
		text += fmt.Sprintf("   Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return text
}

// formatFields lists every field with its binding.
func formatFields(t *model.Template) string {
	if len(t.Fields) == 0 {
		return "Fields: none\n"
	}
	text := fmt.Sprintf("Fields (%d):\n", len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		kind := "form field"
		if f.IsManual {
			kind = "manual"
		}
		text += fmt.Sprintf("%d. %s", i+1, f.ID)
		if f.Name != f.ID {
			text += fmt.Sprintf(" %q", f.Name)
		}
		text += fmt.Sprintf(" [%s, page %d]\n", kind, f.PageIndex)
		if f.Box != nil {
			text += fmt.Sprintf("   Box: %s, font %g\n", formatBox(*f.Box), f.EffectiveFontSize())
		}
		if m, ok := t.Mapping(f.ID); ok {
			text += fmt.Sprintf("   Bound to: %s (%s)\n", m.ProfileKey, m.Transformation)
		}
	}
	return text
}

func formatTemplate(ed *editor.Editor) string {
	t := ed.Template()
	text := fmt.Sprintf("Template #%d: %s\n", t.ID, t.Name)
	text += fmt.Sprintf("Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	text += fmt.Sprintf("Document size: %d bytes\n\n", len(t.Document))
	text += formatFields(&t)

	overlays := ed.Overlays()
	if len(overlays) > 0 {
		text += fmt.Sprintf("\nEditor page %d at zoom %.3g:\n", ed.Page(), ed.Scale())
		for _, o := range overlays {
			text += fmt.Sprintf("   %s: viewport %s (%s)\n", o.Field.ID, formatBox(o.Box), o.State)
		}
	}
	return text
}

func formatGenerateResult(result *service.GenerateResult) string {
	text := fmt.Sprintf("Generated %s\n", result.FileName)
	text += fmt.Sprintf("Path: %s\n", result.Path)
	text += fmt.Sprintf("Size: %d bytes\n", result.Size)
	if len(result.Warnings) > 0 {
		text += fmt.Sprintf("\n⚠️  WARNING: %d field(s) could not be filled:\n", len(result.Warnings))
		for _, w := range result.Warnings {
			text += fmt.Sprintf("   • %s\n", w.Error())
		}
	}
	return text
}

func (s *Server) formatServerInfo(templates, profiles int) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Working Directory: %s\n", s.service.WorkDirectory())
	text += fmt.Sprintf("🗄️  Store: %s\n", s.config.Store)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📄 Templates: %d, Profiles: %d\n\n", templates, profiles)

	text += "🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		text += fmt.Sprintf("• %s: %s\n", name, descriptions.Summary(name))
	}

	text += "\nTypical workflow: template_upload → field_add (flat PDFs) → profile_create → " +
		"mapping_bind → document_generate\n"
	return text
}

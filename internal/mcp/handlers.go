package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// Profile handlers

func (s *Server) handleProfileCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := stringMap(request, "fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile, err := s.service.CreateProfile(ctx, name, fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Created profile #%d: %s\n", profile.ID, profile.Name)
	responseText += formatProfileValues(profile)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleProfileList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles, err := s.service.ListProfiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatProfileList(profiles)), nil
}

func (s *Server) handleProfileShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	profile, err := s.service.GetProfile(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Profile #%d: %s\n", profile.ID, profile.Name)
	responseText += formatProfileValues(profile)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleProfileUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	set, err := stringMap(request, "set")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remove, err := stringSlice(request, "remove")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile, err := s.service.UpdateProfile(ctx, id, optionalString(request, "name"), set, remove)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Updated profile #%d: %s\n", profile.ID, profile.Name)
	responseText += formatProfileValues(profile)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleProfileDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.service.DeleteProfile(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted profile #%d", id)), nil
}

// Template handlers

func (s *Server) handleTemplateUpload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tpl, err := s.service.UploadTemplate(ctx, optionalString(request, "name"), path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Created template #%d: %s\n", tpl.ID, tpl.Name)
	responseText += fmt.Sprintf("Form fields found: %d\n", len(tpl.Fields))
	if len(tpl.Fields) == 0 {
		responseText += "\n💡 INFO: This PDF has no fillable form fields. Use 'field_add' to place text where values should go.\n"
	}
	responseText += "\n" + formatFields(tpl)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleTemplateList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.service.ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTemplateList(templates)), nil
}

func (s *Server) handleTemplateShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ed, err := s.service.Editor(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTemplate(ed)), nil
}

func (s *Server) handleTemplateRename(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tpl, err := s.service.RenameTemplate(ctx, id, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Renamed template #%d to %s", tpl.ID, tpl.Name)), nil
}

func (s *Server) handleTemplateDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.service.DeleteTemplate(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted template #%d", id)), nil
}

// Field handlers

func (s *Server) handleFieldAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := optionalNumber(request, "page", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	field, err := s.service.AddField(ctx, templateID, int(page))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Added field %s (%s) on page %d\n", field.ID, field.Name, field.PageIndex)
	responseText += fmt.Sprintf("Box: %s\n", formatBox(*field.Box))
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFieldDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var coords [4]float64
	for i, key := range []string{"from_x", "from_y", "to_x", "to_y"} {
		if coords[i], err = requireNumber(request, key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	containerWidth, err := optionalNumber(request, "container_width", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	field, err := s.service.DragField(ctx, templateID, fieldID,
		geometry.Point{X: coords[0], Y: coords[1]},
		geometry.Point{X: coords[2], Y: coords[3]},
		containerWidth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Field %s box: %s", field.ID, formatBox(*field.Box))), nil
}

func (s *Server) handleFieldSetBox(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var values [4]float64
	for i, key := range []string{"x", "y", "width", "height"} {
		if values[i], err = requireNumber(request, key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	box := geometry.Rect{X: values[0], Y: values[1], Width: values[2], Height: values[3]}

	if err := s.service.SetFieldBox(ctx, templateID, fieldID, box); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Field %s box: %s", fieldID, formatBox(box))), nil
}

func (s *Server) handleFieldRename(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.RenameField(ctx, templateID, fieldID, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Renamed field %s", fieldID)), nil
}

func (s *Server) handleFieldFontSize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	size, err := requireNumber(request, "size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.SetFieldFontSize(ctx, templateID, fieldID, size); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Field %s font size: %g", fieldID, size)), nil
}

func (s *Server) handleFieldDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.DeleteField(ctx, templateID, fieldID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted field %s", fieldID)), nil
}

// Mapping handlers

func (s *Server) handleMappingBind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// An empty key is allowed and unbinds.
	if _, ok := request.GetArguments()["profile_key"]; !ok {
		return mcp.NewToolResultError(`required argument "profile_key" not found`), nil
	}
	key := optionalString(request, "profile_key")
	transformation := optionalString(request, "transformation")

	if err := s.service.Bind(ctx, templateID, fieldID, key, transformation); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tpl, err := s.service.GetTemplate(ctx, templateID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, ok := tpl.Mapping(fieldID)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("Field %s is no longer bound", fieldID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Bound field %s → %s (%s)", fieldID, m.ProfileKey, m.Transformation)), nil
}

func (s *Server) handleMappingUnbind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := request.RequireString("field_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.Unbind(ctx, templateID, fieldID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Field %s is no longer bound", fieldID)), nil
}

// Generation handlers

func (s *Server) handleDocumentGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := requireID(request, "template_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	profileID, err := requireID(request, "profile_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.GenerateToFile(ctx, templateID, profileID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGenerateResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := s.service.ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	profiles, err := s.service.ListProfiles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatServerInfo(len(templates), len(profiles))), nil
}

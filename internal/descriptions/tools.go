package descriptions

import "sort"

// Tool descriptions with practical examples and workflows

const (
	// Profile tools
	ProfileCreateDescription = `Create a data profile: a named set of values keyed by label.

**When to use:** Before generating documents. A profile holds the values (name, address, dates) that get written into a template.

**Examples:**
• "Create a profile 'Jane' with Full Name = Jane Doe and City = Oslo"
• "Store my company details as a profile called 'Acme Corp'"

**Best practices:** Keep keys consistent across profiles so one template mapping serves them all.`

	ProfileListDescription = `List every stored profile with its keys.

**When to use:** To find a profile id or check which keys exist before binding fields.`

	ProfileShowDescription = `Show one profile with all of its values.`

	ProfileUpdateDescription = `Rename a profile, set values and remove keys in one call.

**Examples:**
• "Change Jane's City to Bergen"
• "Remove the Phone key from profile 3"

**Notes:** Keys in 'set' are added or overwritten; keys in 'remove' are deleted. Templates are not affected.`

	ProfileDeleteDescription = `Delete a profile. Template mappings refer to keys, not profiles, so templates stay intact.`

	// Template tools
	TemplateUploadDescription = `Upload a PDF from the working directory as a new template.

**When to use:** Starting point of every workflow. The document's native form fields become template fields automatically.

**Examples:**
• "Upload w9.pdf as template 'W-9'"
• "Add forms/lease.pdf as a template"

**Common workflows:**
1. Fillable form: template_upload → mapping_bind per field → document_generate
2. Flat scan: template_upload → field_add → field_drag to position → mapping_bind → document_generate

**Notes:** The document itself is stored unchanged and never modified. Paths outside the working directory are rejected.`

	TemplateListDescription = `List every template with its field and mapping counts.`

	TemplateShowDescription = `Show a template's fields, their geometry and their mappings.

**When to use:** To see which fields are bound, find field ids, or check the overlay boxes of manual fields on the current editor page.`

	TemplateRenameDescription = `Rename a template. The output file name of generated documents follows the template name.`

	TemplateDeleteDescription = `Delete a template together with its fields and mappings.`

	// Field tools
	FieldAddDescription = `Add a manual text field to a template page.

**When to use:** The document has no native form field where a value must be written, such as a scanned or flat PDF.

**Notes:** The field is placed at the top-left of the page with a default box; move it with field_drag or field_set_box. Pages are zero-based.`

	FieldDragDescription = `Replay a pointer drag on a manual field, in viewport pixels.

**When to use:** To move a field, or resize it by pressing inside the bottom-right resize handle.

**Examples:**
• "Drag custom field from (110,110) to (210,150) in a 1224px wide view"

**Notes:** Movements of 2 pixels or less count as a click and change nothing. The same physical movement moves the field by the same document distance at any zoom level.`

	FieldSetBoxDescription = `Place a manual field at an exact box, in PDF points from the page's top-left corner.

**Notes:** Boxes smaller than 20x10 points are rejected.`

	FieldRenameDescription = `Change a field's display name. Field ids never change.`

	FieldFontSizeDescription = `Change the font size used to paint a manual field.`

	FieldDeleteDescription = `Delete a field and its mapping.`

	// Mapping tools
	MappingBindDescription = `Bind a template field to a profile key, optionally transforming the value.

**Examples:**
• "Bind full_name to 'Full Name' in uppercase"
• "Map the signature_date field to the 'Date' key"

**Notes:** Transformations are none, uppercase and lowercase. An empty key removes the binding. A field holds at most one binding.`

	MappingUnbindDescription = `Remove a field's binding.`

	// Generation tools
	DocumentGenerateDescription = `Fill a template with a profile and write the result into the working directory.

**When to use:** Final step of every workflow.

**Notes:** The output is named '<template>_<profile>.pdf'. Fields whose key is missing from the profile are filled with an empty value. Field-level problems, such as a checkbox that cannot hold text, are reported as warnings and do not stop generation.`

	ServerInfoDescription = `Get server information, store status, available tools and usage guidance.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"profile_create":    ProfileCreateDescription,
	"profile_list":      ProfileListDescription,
	"profile_show":      ProfileShowDescription,
	"profile_update":    ProfileUpdateDescription,
	"profile_delete":    ProfileDeleteDescription,
	"template_upload":   TemplateUploadDescription,
	"template_list":     TemplateListDescription,
	"template_show":     TemplateShowDescription,
	"template_rename":   TemplateRenameDescription,
	"template_delete":   TemplateDeleteDescription,
	"field_add":         FieldAddDescription,
	"field_drag":        FieldDragDescription,
	"field_set_box":     FieldSetBoxDescription,
	"field_rename":      FieldRenameDescription,
	"field_font_size":   FieldFontSizeDescription,
	"field_delete":      FieldDeleteDescription,
	"mapping_bind":      MappingBindDescription,
	"mapping_unbind":    MappingUnbindDescription,
	"document_generate": DocumentGenerateDescription,
	"server_info":       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the first line of a tool's description.
func Summary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i, r := range desc {
		if r == '\n' {
			return desc[:i]
		}
	}
	return desc
}

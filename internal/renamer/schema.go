// Package renamer turns a composable naming schema into new file names.
// The preview side is pure: it computes every target name from the file
// records alone, and the executor applies exactly the names the preview
// produced, so what the caller inspected is what lands on disk.
package renamer

import "strings"

// ComponentKind identifies one building block of a naming schema.
type ComponentKind string

const (
	ComponentFolderName   ComponentKind = "folder_name"
	ComponentDateCreated  ComponentKind = "date_created"
	ComponentDateModified ComponentKind = "date_modified"
	ComponentTimeCreated  ComponentKind = "time_created"
	ComponentTimeModified ComponentKind = "time_modified"
	ComponentOriginalStem ComponentKind = "original_stem"
	ComponentLiteral      ComponentKind = "literal"
	ComponentSequence     ComponentKind = "sequence"
)

// Component is a single schema entry. Value is used by literal components;
// PadWidth by sequence components.
type Component struct {
	Kind     ComponentKind `yaml:"kind" json:"kind"`
	Value    string        `yaml:"value,omitempty" json:"value,omitempty"`
	PadWidth int           `yaml:"pad_width,omitempty" json:"pad_width,omitempty"`
}

// Schema is an ordered list of components joined by a separator. A schema
// with zero components is degenerate but legal: it renders the separator
// alone as the name stem.
type Schema struct {
	Components []Component `yaml:"components" json:"components"`
	Separator  string      `yaml:"separator" json:"separator"`
}

// HasSequence reports whether the schema contains a sequence component,
// which is what enables collision numbering in the preview.
func (s Schema) HasSequence() bool {
	for _, c := range s.Components {
		if c.Kind == ComponentSequence {
			return true
		}
	}
	return false
}

// Validate rejects unknown component kinds and negative pad widths.
func (s Schema) Validate() error {
	for _, c := range s.Components {
		switch c.Kind {
		case ComponentFolderName, ComponentDateCreated, ComponentDateModified,
			ComponentTimeCreated, ComponentTimeModified, ComponentOriginalStem,
			ComponentLiteral, ComponentSequence:
		default:
			return &SchemaError{Kind: string(c.Kind)}
		}
		if c.Kind == ComponentSequence && c.PadWidth < 0 {
			return &SchemaError{Kind: string(c.Kind), Message: "pad width must be >= 0"}
		}
	}
	return nil
}

// SchemaError reports an invalid schema component.
type SchemaError struct {
	Kind    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Message != "" {
		return "invalid schema component " + e.Kind + ": " + e.Message
	}
	return "unknown schema component kind: " + e.Kind
}

// SanitizeComponent strips characters that are unsafe in file names.
// Control characters and <>:"/\|?* become underscores; surrounding spaces
// and dots are trimmed. The result may be empty.
func SanitizeComponent(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, ch := range input {
		switch {
		case ch < 0x20 || ch == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(`<>:"/\|?*`, ch):
			b.WriteRune('_')
		default:
			b.WriteRune(ch)
		}
	}
	return strings.Trim(strings.TrimSpace(b.String()), ".")
}

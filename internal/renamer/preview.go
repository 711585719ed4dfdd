package renamer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/realdedupe/dedupe/internal/catalog"
)

// Plan maps each original absolute path to its proposed new file name
// (name only, not a path: files are renamed within their own folder).
type Plan map[string]string

const (
	dateLayout = "20060102"
	timeLayout = "150405"
)

// Preview computes the target name for every file under the schema,
// deterministically and without touching the filesystem.
//
// Pass one renders every component except sequence slots from the file's
// own attributes. Pass two runs only when the schema carries a sequence
// component: files sharing a base name get ascending numbers starting at 1
// in input order, zero-padded to the configured width; a file whose base
// name is unique keeps it without a number. Without a sequence component
// colliding inputs keep identical names; that is the documented behavior,
// not something the preview silently repairs.
func Preview(files []catalog.FileRecord, schema Schema) Plan {
	plan := make(Plan, len(files))

	baseNames := make([]string, len(files))
	for i, f := range files {
		baseNames[i] = buildName(schema, f, 0)
	}

	if !schema.HasSequence() {
		for i, f := range files {
			plan[f.Path] = baseNames[i]
		}
		return plan
	}

	// Indices per base name, preserving input order within each set.
	byBase := make(map[string][]int, len(files))
	for i, name := range baseNames {
		byBase[name] = append(byBase[name], i)
	}

	for name, indices := range byBase {
		if len(indices) == 1 {
			plan[files[indices[0]].Path] = name
			continue
		}
		for seq, idx := range indices {
			plan[files[idx].Path] = buildName(schema, files[idx], seq+1)
		}
	}
	return plan
}

// buildName renders one file name from the schema. seq == 0 means the
// base-name pass: sequence components are omitted entirely.
func buildName(schema Schema, rec catalog.FileRecord, seq int) string {
	created := rec.Created
	if created.IsZero() {
		created = rec.ModTime
	}
	modified := rec.ModTime

	var parts []string
	for _, comp := range schema.Components {
		var part string
		switch comp.Kind {
		case ComponentFolderName:
			part = SanitizeComponent(filepath.Base(rec.Folder))
			if part == "" {
				part = "folder"
			}
		case ComponentDateCreated:
			part = created.Format(dateLayout)
		case ComponentTimeCreated:
			part = created.Format(timeLayout)
		case ComponentDateModified:
			part = modified.Format(dateLayout)
		case ComponentTimeModified:
			part = modified.Format(timeLayout)
		case ComponentOriginalStem:
			part = SanitizeComponent(rec.Stem())
			if part == "" {
				part = "file"
			}
		case ComponentLiteral:
			part = SanitizeComponent(comp.Value)
		case ComponentSequence:
			if seq > 0 {
				part = fmt.Sprintf("%0*d", comp.PadWidth, seq)
			}
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	var stem string
	switch {
	case len(schema.Components) == 0:
		// Degenerate but legal: the separator alone.
		stem = schema.Separator
	case len(parts) == 0:
		stem = SanitizeComponent(rec.Stem())
		if stem == "" {
			stem = "file"
		}
	default:
		stem = strings.Join(parts, schema.Separator)
	}
	return stem + rec.Ext()
}

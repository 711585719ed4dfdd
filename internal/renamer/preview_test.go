package renamer

import (
	"testing"
	"time"

	"github.com/realdedupe/dedupe/internal/catalog"
)

func record(folder, name string, created, modified time.Time) catalog.FileRecord {
	return catalog.FileRecord{
		Path:    folder + "/" + name,
		Name:    name,
		Folder:  folder,
		ModTime: modified,
		Created: created,
	}
}

var (
	createdAt  = time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC)
	modifiedAt = time.Date(2024, 5, 20, 17, 45, 55, 0, time.UTC)
)

func seqSchema(kinds ...ComponentKind) Schema {
	s := Schema{Separator: "_"}
	for _, k := range kinds {
		c := Component{Kind: k}
		if k == ComponentSequence {
			c.PadWidth = 3
		}
		s.Components = append(s.Components, c)
	}
	return s
}

func TestPreviewFolderNameWithSequence(t *testing.T) {
	files := []catalog.FileRecord{
		record("/pics/photos", "a.jpg", createdAt, modifiedAt),
		record("/pics/photos", "b.jpg", createdAt, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentFolderName, ComponentSequence))

	if got := plan["/pics/photos/a.jpg"]; got != "photos_001.jpg" {
		t.Errorf("a.jpg -> %q, want photos_001.jpg", got)
	}
	if got := plan["/pics/photos/b.jpg"]; got != "photos_002.jpg" {
		t.Errorf("b.jpg -> %q, want photos_002.jpg", got)
	}
}

func TestPreviewUniqueBaseKeepsNoNumber(t *testing.T) {
	files := []catalog.FileRecord{
		record("/pics/photos", "solo.jpg", createdAt, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentFolderName, ComponentSequence))

	if got := plan["/pics/photos/solo.jpg"]; got != "photos.jpg" {
		t.Errorf("solo.jpg -> %q, want photos.jpg", got)
	}
}

func TestPreviewWithoutSequenceLeavesCollisions(t *testing.T) {
	files := []catalog.FileRecord{
		record("/pics/photos", "a.jpg", createdAt, modifiedAt),
		record("/pics/photos", "b.jpg", createdAt, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentFolderName))

	if plan["/pics/photos/a.jpg"] != "photos.jpg" || plan["/pics/photos/b.jpg"] != "photos.jpg" {
		t.Errorf("expected both files to map to photos.jpg, got %v", plan)
	}
}

func TestPreviewDateTimeComponents(t *testing.T) {
	files := []catalog.FileRecord{
		record("/docs", "report.pdf", createdAt, modifiedAt),
	}
	schema := seqSchema(ComponentDateCreated, ComponentTimeCreated,
		ComponentDateModified, ComponentTimeModified)
	plan := Preview(files, schema)

	want := "20240315_093005_20240520_174555.pdf"
	if got := plan["/docs/report.pdf"]; got != want {
		t.Errorf("report.pdf -> %q, want %q", got, want)
	}
}

func TestPreviewCreatedFallsBackToModified(t *testing.T) {
	files := []catalog.FileRecord{
		record("/docs", "report.pdf", time.Time{}, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentDateCreated))

	if got := plan["/docs/report.pdf"]; got != "20240520.pdf" {
		t.Errorf("report.pdf -> %q, want 20240520.pdf", got)
	}
}

func TestPreviewLiteralAndStem(t *testing.T) {
	files := []catalog.FileRecord{
		record("/in", "draft v2.txt", createdAt, modifiedAt),
	}
	schema := Schema{
		Components: []Component{
			{Kind: ComponentLiteral, Value: "final"},
			{Kind: ComponentOriginalStem},
		},
		Separator: "-",
	}
	plan := Preview(files, schema)

	if got := plan["/in/draft v2.txt"]; got != "final-draft v2.txt" {
		t.Errorf("got %q, want final-draft v2.txt", got)
	}
}

func TestPreviewExtensionCasePreserved(t *testing.T) {
	files := []catalog.FileRecord{
		record("/pics", "IMG.JPG", createdAt, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentFolderName))

	if got := plan["/pics/IMG.JPG"]; got != "pics.JPG" {
		t.Errorf("got %q, want pics.JPG", got)
	}
}

func TestPreviewEmptySchemaRendersSeparator(t *testing.T) {
	files := []catalog.FileRecord{
		record("/in", "x.txt", createdAt, modifiedAt),
	}
	plan := Preview(files, Schema{Separator: "_"})

	if got := plan["/in/x.txt"]; got != "_.txt" {
		t.Errorf("got %q, want _.txt", got)
	}
}

func TestPreviewAllEmptyPartsFallsBackToStem(t *testing.T) {
	files := []catalog.FileRecord{
		record("/in", "keepme.txt", createdAt, modifiedAt),
	}
	schema := Schema{
		Components: []Component{{Kind: ComponentLiteral, Value: "   "}},
		Separator:  "_",
	}
	plan := Preview(files, schema)

	if got := plan["/in/keepme.txt"]; got != "keepme.txt" {
		t.Errorf("got %q, want keepme.txt", got)
	}
}

func TestPreviewIsPure(t *testing.T) {
	// Paths that do not exist on disk must preview fine; the plan is
	// computed from records alone.
	files := []catalog.FileRecord{
		record("/definitely/not/on/disk", "ghost.txt", createdAt, modifiedAt),
	}
	plan := Preview(files, seqSchema(ComponentOriginalStem))

	if got := plan["/definitely/not/on/disk/ghost.txt"]; got != "ghost.txt" {
		t.Errorf("got %q, want ghost.txt", got)
	}
}

func TestPreviewDeterministic(t *testing.T) {
	files := []catalog.FileRecord{
		record("/pics", "a.jpg", createdAt, modifiedAt),
		record("/pics", "b.jpg", createdAt, modifiedAt),
		record("/pics", "c.jpg", createdAt, modifiedAt),
	}
	schema := seqSchema(ComponentFolderName, ComponentSequence)

	first := Preview(files, schema)
	for i := 0; i < 10; i++ {
		again := Preview(files, schema)
		for path, name := range first {
			if again[path] != name {
				t.Fatalf("plan differs between runs for %s: %q vs %q", path, name, again[path])
			}
		}
	}
}

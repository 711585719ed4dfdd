package grouper

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/realdedupe/dedupe/internal/catalog"
	"github.com/realdedupe/dedupe/internal/testutil"
)

func scanFixture(t *testing.T, f *testutil.TestFixture) []catalog.FileRecord {
	t.Helper()
	outcome, err := catalog.New().Scan(context.Background(), catalog.ScanScope{
		Root:      f.RootDir,
		Recursive: true,
	})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return outcome.Records
}

func group(t *testing.T, records []catalog.FileRecord, criteria CriteriaSet) *Result {
	t.Helper()
	result, err := New().Group(context.Background(), records, criteria)
	if err != nil {
		t.Fatalf("Group returned error: %v", err)
	}
	return result
}

func TestGroupByHash(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("same content"))
	f.CreateFile("b.txt", []byte("same content"))
	f.CreateFile("c.txt", []byte("other stuff!"))

	result := group(t, scanFixture(t, f), CriteriaSet{Hash: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if len(result.Groups[0].Files) != 2 {
		t.Errorf("group has %d members, want 2", len(result.Groups[0].Files))
	}
	if result.HashSkipped != 0 {
		t.Errorf("HashSkipped = %d, want 0", result.HashSkipped)
	}
	if !strings.HasPrefix(result.Groups[0].Description, "sha256 ") {
		t.Errorf("description %q missing sha256 prefix", result.Groups[0].Description)
	}
}

func TestGroupBySizeOnly(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("1234567890"))
	f.CreateFile("b.txt", []byte("abcdefghij"))
	f.CreateFile("c.txt", []byte("short"))

	result := group(t, scanFixture(t, f), CriteriaSet{Size: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if len(result.Groups[0].Files) != 2 {
		t.Errorf("group has %d members, want 2", len(result.Groups[0].Files))
	}
}

func TestGroupByNameNormalized(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("one/Report.TXT", []byte("aaa"))
	f.CreateFile("two/report.txt", []byte("bbbbbb"))
	f.CreateFile("two/other.txt", []byte("cc"))

	result := group(t, scanFixture(t, f), CriteriaSet{Name: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if got := len(result.Groups[0].Files); got != 2 {
		t.Errorf("group has %d members, want 2", got)
	}
}

func TestGroupHashAndSizeIntersect(t *testing.T) {
	f := testutil.NewFixture(t)
	// Two files with equal content, one with equal size but different
	// content. Only the content-equal pair may group.
	f.CreateFile("a.txt", []byte("0123456789"))
	f.CreateFile("b.txt", []byte("0123456789"))
	f.CreateFile("c.txt", []byte("9876543210"))

	result := group(t, scanFixture(t, f), CriteriaSet{Hash: true, Size: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if got := len(result.Groups[0].Files); got != 2 {
		t.Errorf("group has %d members, want 2", got)
	}
}

func TestGroupNoCriteria(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("same"))
	f.CreateFile("b.txt", []byte("same"))

	result := group(t, scanFixture(t, f), CriteriaSet{})

	if len(result.Groups) != 0 {
		t.Errorf("got %d groups with no criteria, want 0", len(result.Groups))
	}
}

func TestGroupAllUnique(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("a"))
	f.CreateFile("b.txt", []byte("bb"))
	f.CreateFile("c.txt", []byte("ccc"))

	result := group(t, scanFixture(t, f), CriteriaSet{Hash: true, Size: true, Name: true})

	if len(result.Groups) != 0 {
		t.Errorf("got %d groups, want 0", len(result.Groups))
	}
}

func TestGroupHashCapSkipped(t *testing.T) {
	f := testutil.NewFixture(t)
	content := strings.Repeat("x", 2048)
	f.CreateFile("big1.bin", []byte(content))
	f.CreateFile("big2.bin", []byte(content))

	result := group(t, scanFixture(t, f), CriteriaSet{
		Hash:         true,
		Size:         true,
		HashCapBytes: 1024,
	})

	if result.HashSkipped != 2 {
		t.Errorf("HashSkipped = %d, want 2", result.HashSkipped)
	}
	// Both capped files carry the same skip marker plus equal size, so
	// they still group.
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if !strings.Contains(result.Groups[0].Description, "hash skipped") {
		t.Errorf("description %q missing skip marker", result.Groups[0].Description)
	}
}

func TestGroupUnreadableFileIsolatedFromRealDigests(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply when running as root")
	}

	f := testutil.NewFixture(t)
	f.CreateFile("ok.txt", []byte("0123456789"))
	locked := f.CreateFile("locked.txt", []byte("0123456789"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	result := group(t, scanFixture(t, f), CriteriaSet{Hash: true})

	// Identical content, but the unreadable file degrades to the skip
	// marker and must not merge with the real digest.
	if len(result.Groups) != 0 {
		t.Errorf("got %d groups, want 0", len(result.Groups))
	}
	if result.HashSkipped != 1 {
		t.Errorf("HashSkipped = %d, want 1", result.HashSkipped)
	}
}

func TestGroupNewestFirstWithPathTiebreak(t *testing.T) {
	f := testutil.NewFixture(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	f.CreateFileWithModTime("old.txt", []byte("dup"), base.Add(-time.Hour))
	f.CreateFileWithModTime("newest.txt", []byte("dup"), base)
	f.CreateFileWithModTime("alsonew.txt", []byte("dup"), base)

	result := group(t, scanFixture(t, f), CriteriaSet{Hash: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	files := result.Groups[0].Files
	if len(files) != 3 {
		t.Fatalf("group has %d members, want 3", len(files))
	}
	// The two newest share a timestamp; path decides their order.
	if files[0].Name != "alsonew.txt" || files[1].Name != "newest.txt" || files[2].Name != "old.txt" {
		t.Errorf("order = [%s %s %s], want [alsonew.txt newest.txt old.txt]",
			files[0].Name, files[1].Name, files[2].Name)
	}
}

func TestGroupByModTime(t *testing.T) {
	f := testutil.NewFixture(t)
	stamp := time.Date(2024, 2, 10, 8, 0, 0, 0, time.Local)
	f.CreateFileWithModTime("a.txt", []byte("one"), stamp)
	f.CreateFileWithModTime("b.txt", []byte("second"), stamp)
	f.CreateFileWithModTime("c.txt", []byte("third"), stamp.Add(time.Second))

	result := group(t, scanFixture(t, f), CriteriaSet{ModTime: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if got := len(result.Groups[0].Files); got != 2 {
		t.Errorf("group has %d members, want 2", got)
	}
}

func TestGroupByMIME(t *testing.T) {
	f := testutil.NewFixture(t)
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	f.CreateFile("one.png", append(pngHeader, []byte("first image")...))
	f.CreateFile("two.png", append(pngHeader, []byte("second image, longer")...))
	f.CreateFile("notes.txt", []byte("plain text, not an image"))

	result := group(t, scanFixture(t, f), CriteriaSet{MIME: true})

	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if got := len(result.Groups[0].Files); got != 2 {
		t.Errorf("group has %d members, want 2", got)
	}
	if result.Groups[0].Description != "mime image/png" {
		t.Errorf("description = %q, want %q", result.Groups[0].Description, "mime image/png")
	}
}

func TestGroupMIMEUnreadableFallsBackToUnknown(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply when running as root")
	}

	f := testutil.NewFixture(t)
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	readable := f.CreateFile("ok.png", pngHeader)
	a := f.CreateFile("a.bin", []byte("secret a"))
	b := f.CreateFile("b.bin", []byte("secret b!"))
	for _, p := range []string{a, b} {
		if err := os.Chmod(p, 0o000); err != nil {
			t.Fatalf("chmod failed: %v", err)
		}
	}
	t.Cleanup(func() {
		os.Chmod(a, 0o644)
		os.Chmod(b, 0o644)
	})

	result := group(t, scanFixture(t, f), CriteriaSet{MIME: true})

	// Both unreadable files detect as "unknown" and group together; the
	// readable image stays out of that group.
	if len(result.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(result.Groups))
	}
	if result.Groups[0].Description != "mime unknown" {
		t.Errorf("description = %q, want %q", result.Groups[0].Description, "mime unknown")
	}
	for _, file := range result.Groups[0].Files {
		if file.Path == readable {
			t.Error("readable image grouped with unreadable files")
		}
	}
}

func TestGroupDeterministicOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("setA/1.txt", []byte("first pair"))
	f.CreateFile("setA/2.txt", []byte("first pair"))
	f.CreateFile("setB/1.txt", []byte("second pair!"))
	f.CreateFile("setB/2.txt", []byte("second pair!"))

	records := scanFixture(t, f)
	first := group(t, records, CriteriaSet{Hash: true})
	second := group(t, records, CriteriaSet{Hash: true})

	if len(first.Groups) != 2 || len(second.Groups) != 2 {
		t.Fatalf("got %d and %d groups, want 2 each", len(first.Groups), len(second.Groups))
	}
	for i := range first.Groups {
		if first.Groups[i].Files[0].Path != second.Groups[i].Files[0].Path {
			t.Errorf("group order differs between runs at index %d", i)
		}
	}
}

func TestGroupCancellation(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("same"))
	f.CreateFile("b.txt", []byte("same"))
	records := scanFixture(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Group(ctx, records, CriteriaSet{Hash: true}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestGroupProgress(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("pair"))
	f.CreateFile("b.txt", []byte("pair"))
	f.CreateFile("solo.txt", []byte("unique size"))
	records := scanFixture(t, f)

	var mu sync.Mutex
	var calls int
	var lastTotal int

	g := New()
	g.SetProgress(func(hashed, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastTotal = total
	})
	if _, err := g.Group(context.Background(), records, CriteriaSet{Hash: true}); err != nil {
		t.Fatalf("Group returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("progress called %d times, want 2", calls)
	}
	if lastTotal != 2 {
		t.Errorf("total to hash = %d, want 2 (unique sizes are never hashed)", lastTotal)
	}
}

func TestDeletableCount(t *testing.T) {
	g := Group{Files: make([]catalog.FileRecord, 3)}
	if got := g.DeletableCount(); got != 2 {
		t.Errorf("DeletableCount = %d, want 2", got)
	}
	empty := Group{}
	if got := empty.DeletableCount(); got != 0 {
		t.Errorf("DeletableCount(empty) = %d, want 0", got)
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Report.TXT", "report.txt"},
		{"  padded.txt  ", "padded.txt"},
		{"plain.txt", "plain.txt"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

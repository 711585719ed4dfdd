package catalog

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/realdedupe/dedupe/internal/testutil"
)

func scanAll(t *testing.T, scope ScanScope) *ScanOutcome {
	t.Helper()
	outcome, err := New().Scan(context.Background(), scope)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	return outcome
}

func recordNames(outcome *ScanOutcome) []string {
	names := make([]string, len(outcome.Records))
	for i, r := range outcome.Records {
		names[i] = r.Name
	}
	return names
}

func TestScanCollectsRegularFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("alpha"))
	f.CreateFile("b.txt", []byte("beta"))
	f.CreateDir("emptydir")

	outcome := scanAll(t, ScanScope{Root: f.RootDir, Recursive: true})

	if len(outcome.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(outcome.Records))
	}
	for _, rec := range outcome.Records {
		if rec.Size == 0 {
			t.Errorf("record %s has zero size", rec.Name)
		}
		if !filepath.IsAbs(rec.Path) {
			t.Errorf("record path %s is not absolute", rec.Path)
		}
		if rec.Folder != filepath.Dir(rec.Path) {
			t.Errorf("record folder %s does not match path %s", rec.Folder, rec.Path)
		}
		if rec.ModTime.IsZero() {
			t.Errorf("record %s has zero mod time", rec.Name)
		}
	}
}

func TestScanSubfolders(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("top.txt", []byte("top"))
	f.CreateFile("sub/nested.txt", []byte("nested"))

	recursive := scanAll(t, ScanScope{Root: f.RootDir, Recursive: true})
	if len(recursive.Records) != 2 {
		t.Errorf("recursive scan got %d records, want 2", len(recursive.Records))
	}

	flat := scanAll(t, ScanScope{Root: f.RootDir, Recursive: false})
	if len(flat.Records) != 1 {
		t.Fatalf("flat scan got %d records, want 1", len(flat.Records))
	}
	if flat.Records[0].Name != "top.txt" {
		t.Errorf("flat scan found %s, want top.txt", flat.Records[0].Name)
	}
}

func TestScanDaysBack(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("fresh.txt", []byte("fresh"))
	f.CreateFileWithAge("stale.txt", []byte("stale"), 10*24*time.Hour)

	limited := scanAll(t, ScanScope{Root: f.RootDir, Recursive: true, DaysBack: 7})
	if got := recordNames(limited); len(got) != 1 || got[0] != "fresh.txt" {
		t.Errorf("days-back scan got %v, want [fresh.txt]", got)
	}

	unbounded := scanAll(t, ScanScope{Root: f.RootDir, Recursive: true, DaysBack: 0})
	if len(unbounded.Records) != 2 {
		t.Errorf("unbounded scan got %d records, want 2", len(unbounded.Records))
	}
}

func TestScanNamePrefixCaseSensitive(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("IMG_001.jpg", []byte("a"))
	f.CreateFile("img_002.jpg", []byte("b"))
	f.CreateFile("doc.pdf", []byte("c"))

	outcome := scanAll(t, ScanScope{Root: f.RootDir, Recursive: true, NamePrefix: "IMG_"})
	if got := recordNames(outcome); len(got) != 1 || got[0] != "IMG_001.jpg" {
		t.Errorf("prefix scan got %v, want [IMG_001.jpg]", got)
	}
}

func TestScanMissingRoot(t *testing.T) {
	_, err := New().Scan(context.Background(), ScanScope{
		Root: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanRootIsFile(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("plain.txt", []byte("x"))

	if _, err := New().Scan(context.Background(), ScanScope{Root: path}); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestScanStableOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("c.txt", []byte("c"))
	f.CreateFile("a.txt", []byte("a"))
	f.CreateFile("sub/b.txt", []byte("b"))

	scope := ScanScope{Root: f.RootDir, Recursive: true}
	first := scanAll(t, scope)
	second := scanAll(t, scope)

	if !reflect.DeepEqual(recordNames(first), recordNames(second)) {
		t.Errorf("scan order not stable: %v vs %v", recordNames(first), recordNames(second))
	}
}

func TestScanCancellation(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Scan(ctx, ScanScope{Root: f.RootDir, Recursive: true}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestScanProgressCallback(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a.txt", []byte("a"))
	f.CreateFile("b.txt", []byte("b"))

	var calls int
	s := New()
	s.SetProgress(func(found int, path string) {
		calls++
		if found != calls {
			t.Errorf("progress found = %d on call %d", found, calls)
		}
	})
	if _, err := s.Scan(context.Background(), ScanScope{Root: f.RootDir, Recursive: true}); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if calls != 2 {
		t.Errorf("progress called %d times, want 2", calls)
	}
}

func TestFileRecordStemExt(t *testing.T) {
	tests := []struct {
		name string
		stem string
		ext  string
	}{
		{"photo.JPG", "photo", ".JPG"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"noext", "noext", ""},
		{".hidden", "", ".hidden"},
	}
	for _, tt := range tests {
		rec := FileRecord{Name: tt.name}
		if got := rec.Stem(); got != tt.stem {
			t.Errorf("Stem(%q) = %q, want %q", tt.name, got, tt.stem)
		}
		if got := rec.Ext(); got != tt.ext {
			t.Errorf("Ext(%q) = %q, want %q", tt.name, got, tt.ext)
		}
	}
}

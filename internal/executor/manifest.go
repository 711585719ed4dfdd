package executor

import (
	"fmt"
	"os"
	"time"
)

// Manifest keeps track of deleted files so a run can be audited afterwards.
type Manifest struct {
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	DeletedAt time.Time
}

// NewManifest creates a new Manifest
func NewManifest() *Manifest {
	return &Manifest{
		Files:     []DeletedFileInfo{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *Manifest) Add(path string, size int64) {
	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Save saves the manifest to a file
func (m *Manifest) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Files: %d\n\n", len(m.Files))

	for _, f := range m.Files {
		fmt.Fprintf(file, "%s | %d bytes | %s\n",
			f.Path, f.Size, f.DeletedAt.Format(time.RFC3339))
	}

	return nil
}

// Package reporter renders duplicate scan results in several output
// formats for terminal and machine consumption.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/realdedupe/dedupe/internal/catalog"
	"github.com/realdedupe/dedupe/internal/grouper"
	"github.com/realdedupe/dedupe/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ScanReport bundles everything one duplicate scan produced.
type ScanReport struct {
	Root              string
	Groups            []grouper.Group
	TotalFilesScanned int
	HashSkipped       int
	ScanSkipped       catalog.SkipReasons
	Elapsed           time.Duration
}

// DeletableCount sums the removable members across all groups.
func (s *ScanReport) DeletableCount() int {
	total := 0
	for _, g := range s.Groups {
		total += g.DeletableCount()
	}
	return total
}

// DeletableSize sums the sizes of removable members, keeping the newest
// member of each group.
func (s *ScanReport) DeletableSize() int64 {
	var total int64
	for _, g := range s.Groups {
		if len(g.Files) == 0 {
			continue
		}
		for _, f := range g.Files[1:] {
			total += f.Size
		}
	}
	return total
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
	}
}

// Report renders the scan report in the reporter's format.
func (r *Reporter) Report(report *ScanReport) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(report)
	case FormatJSON:
		return r.reportJSON(report)
	case FormatYAML:
		return r.reportYAML(report)
	case FormatSummary:
		return r.reportSummary(report)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(report *ScanReport) error {
	fmt.Fprintf(r.writer, "=== Duplicate Scan Summary ===\n")
	fmt.Fprintf(r.writer, "Folder: %s\n", report.Root)
	fmt.Fprintf(r.writer, "Files Scanned: %d\n", report.TotalFilesScanned)
	fmt.Fprintf(r.writer, "Duplicate Groups: %d\n", len(report.Groups))
	fmt.Fprintf(r.writer, "Removable Files: %d (%s)\n",
		report.DeletableCount(), utils.HumanSize(report.DeletableSize()))
	if report.HashSkipped > 0 {
		fmt.Fprintf(r.writer, "Hashing Skipped: %d file(s) over the size cap or unreadable\n", report.HashSkipped)
	}
	if report.ScanSkipped.Total() > 0 {
		fmt.Fprintf(r.writer, "Scan Skipped: %d (permissions %d, missing %d, io %d)\n",
			report.ScanSkipped.Total(), report.ScanSkipped.Permissions,
			report.ScanSkipped.Missing, report.ScanSkipped.TransientIO)
	}
	fmt.Fprintf(r.writer, "Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))

	return nil
}

// reportTable generates a table report with one section per group
func (r *Reporter) reportTable(report *ScanReport) error {
	for i, group := range report.Groups {
		fmt.Fprintf(r.writer, "Group %d: %s\n", i+1, group.Description)
		fmt.Fprintf(r.writer, "%-60s | %-12s | %s\n", "Path", "Size", "Modified")
		fmt.Fprintf(r.writer, "%s\n", strings.Repeat("-", 95))

		for _, file := range group.Files {
			path := file.Path
			if len(path) > 60 {
				path = "..." + path[len(path)-57:]
			}
			fmt.Fprintf(r.writer, "%-60s | %-12s | %s\n",
				path,
				utils.HumanSize(file.Size),
				utils.FormatTimestamp(file.ModTime))
		}
		fmt.Fprintln(r.writer)
	}

	fmt.Fprintf(r.writer, "Total: %d group(s), %d removable file(s), %s\n",
		len(report.Groups), report.DeletableCount(), utils.HumanSize(report.DeletableSize()))

	return nil
}

// memberDTO is the serialized form of one group member.
type memberDTO struct {
	Path          string  `json:"path" yaml:"path"`
	Size          int64   `json:"size" yaml:"size"`
	SizeFormatted string  `json:"size_formatted" yaml:"size_formatted"`
	Modified      string  `json:"modified" yaml:"modified"`
	ModifiedEpoch float64 `json:"modified_epoch" yaml:"modified_epoch"`
}

// groupDTO is the serialized form of one duplicate group.
type groupDTO struct {
	Description string      `json:"description" yaml:"description"`
	Files       []memberDTO `json:"files" yaml:"files"`
}

// reportDTO is the serialized form of the whole report.
type reportDTO struct {
	Timestamp          string              `json:"timestamp" yaml:"timestamp"`
	Folder             string              `json:"folder" yaml:"folder"`
	TotalFilesScanned  int                 `json:"total_files_scanned" yaml:"total_files_scanned"`
	DuplicateGroups    int                 `json:"duplicate_groups" yaml:"duplicate_groups"`
	RemovableFiles     int                 `json:"removable_files" yaml:"removable_files"`
	RemovableSize      int64               `json:"removable_size" yaml:"removable_size"`
	RemovableFormatted string              `json:"removable_size_formatted" yaml:"removable_size_formatted"`
	HashSkipped        int                 `json:"hash_skipped" yaml:"hash_skipped"`
	ScanSkipped        catalog.SkipReasons `json:"scan_skipped" yaml:"scan_skipped"`
	Groups             []groupDTO          `json:"groups" yaml:"groups"`
}

func buildDTO(report *ScanReport) reportDTO {
	dto := reportDTO{
		Timestamp:          time.Now().Format(time.RFC3339),
		Folder:             report.Root,
		TotalFilesScanned:  report.TotalFilesScanned,
		DuplicateGroups:    len(report.Groups),
		RemovableFiles:     report.DeletableCount(),
		RemovableSize:      report.DeletableSize(),
		RemovableFormatted: utils.HumanSize(report.DeletableSize()),
		HashSkipped:        report.HashSkipped,
		ScanSkipped:        report.ScanSkipped,
		Groups:             []groupDTO{},
	}
	for _, group := range report.Groups {
		g := groupDTO{Description: group.Description}
		for _, file := range group.Files {
			g.Files = append(g.Files, memberDTO{
				Path:          file.Path,
				Size:          file.Size,
				SizeFormatted: utils.HumanSize(file.Size),
				Modified:      utils.FormatTimestamp(file.ModTime),
				ModifiedEpoch: utils.Epoch(file.ModTime),
			})
		}
		dto.Groups = append(dto.Groups, g)
	}
	return dto
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(report *ScanReport) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDTO(report))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(report *ScanReport) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(buildDTO(report))
}

// SaveToFile saves the report to a file
func SaveToFile(report *ScanReport, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(report)
}

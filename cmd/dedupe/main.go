package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/realdedupe/dedupe/internal/catalog"
	"github.com/realdedupe/dedupe/internal/config"
	"github.com/realdedupe/dedupe/internal/executor"
	"github.com/realdedupe/dedupe/internal/grouper"
	"github.com/realdedupe/dedupe/internal/progress"
	"github.com/realdedupe/dedupe/internal/renamer"
	"github.com/realdedupe/dedupe/internal/reporter"
	"github.com/realdedupe/dedupe/internal/ui"
	"github.com/realdedupe/dedupe/pkg/utils"
)

var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath   string
	folder       string
	daysBack     int
	namePrefix   string
	noSubfolders bool
	useHash      bool
	useSize      bool
	useName      bool
	useMTime     bool
	useMIME      bool
	hashCapMB    int64
	outputFmt    string
	outputFile   string
	assumeYes    bool
	dryRun       bool
	permanent    bool
	renameKept   bool
	manifestPath string
	preset       string
	initConfig   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Duplicate file finder and batch renamer",
	Long: `Dedupe finds duplicate files in a folder by content hash, size, name,
modification time or MIME type, deletes the copies you do not want to keep,
and batch-renames files with a composable naming schema.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a folder for duplicate files",
	Long:  `Scans a folder and reports duplicate groups without making any changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cfg.CriteriaSet().Any() {
			return fmt.Errorf("no duplicate criteria enabled; enable at least one of --hash, --size, --name, --mtime, --mime")
		}

		report, err := runScanAndGroup(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		format := parseFormat(outputFmt)
		if outputFile != "" {
			if err := reporter.SaveToFile(report, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
			return nil
		}

		rptr := reporter.New(os.Stdout, format)
		if err := rptr.Report(report); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		rememberFolder(cfg)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Find duplicates and delete the unwanted copies",
	Long: `Scans a folder for duplicates, lets you pick which member of each group
to keep, and deletes the rest. Files go to the system trash when one is
available; use --permanent to bypass it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("rename-kept") {
			cfg.RenameKept = renameKept
		}
		if !cfg.CriteriaSet().Any() {
			return fmt.Errorf("no duplicate criteria enabled; enable at least one of --hash, --size, --name, --mtime, --mime")
		}

		report, err := runScanAndGroup(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(report.Groups) == 0 {
			fmt.Println("\nNo duplicates found.")
			return nil
		}

		rptr := reporter.New(os.Stdout, reporter.FormatSummary)
		if err := rptr.Report(report); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		// Keep decision per group: the newest member unless the user picks
		// another one interactively.
		keep := make(map[int]int, len(report.Groups))
		for i := range report.Groups {
			keep[i] = 0
		}
		if !assumeYes && !dryRun {
			selection, err := ui.RunKeepPicker(report.Groups)
			if err != nil {
				return err
			}
			if !selection.Confirmed {
				fmt.Println("Cleanup cancelled")
				return nil
			}
			keep = selection.Keep
		}

		if dryRun {
			fmt.Println("\n[DRY RUN MODE] No files will be deleted.")
			for i, group := range report.Groups {
				for j, file := range group.Files {
					if j == keep[i] {
						continue
					}
					fmt.Printf("  would delete %s (%s)\n", file.Path, utils.HumanSize(file.Size))
				}
			}
			return nil
		}

		exec := executor.New()
		exec.SetPermanent(permanent)

		deleted := 0
		var reclaimed int64
		var allErrors []*executor.DeletionError
		renamedKept := 0

		for i, group := range report.Groups {
			var targets []string
			for j, file := range group.Files {
				if j == keep[i] {
					continue
				}
				targets = append(targets, file.Path)
			}

			result := exec.Delete(targets)
			deleted += result.Deleted
			reclaimed += result.Reclaimed
			allErrors = append(allErrors, result.Errors...)

			// The kept file is only renamed when its whole group deleted
			// cleanly; otherwise the survivors keep their names.
			if cfg.RenameKept && len(result.Errors) == 0 {
				if _, err := exec.RenameKept(group.Files[keep[i]].Path); err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not rename kept file: %v\n", err)
				} else {
					renamedKept++
				}
			}
		}

		fmt.Printf("\nDeleted: %d file(s) (%s reclaimed)\n", deleted, utils.HumanSize(reclaimed))
		if renamedKept > 0 {
			fmt.Printf("Renamed kept files: %d\n", renamedKept)
		}
		if len(allErrors) > 0 {
			fmt.Print(executor.FormatErrorSummary(allErrors))
		}

		if manifestPath != "" {
			if err := exec.GetManifest().Save(manifestPath); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save manifest: %v\n", err)
			} else {
				fmt.Printf("Manifest saved to: %s\n", manifestPath)
			}
		}

		rememberFolder(cfg)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Batch-rename files with the configured naming schema",
	Long: `Scans a folder, previews the new name for every matching file under the
configured schema, and applies the renames after confirmation. The preview
is computed without touching the disk; what you see is what gets applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("preset") {
			cfg.FileTypePreset = preset
		}

		outcome, err := runScan(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		var candidates []catalog.FileRecord
		for _, rec := range outcome.Records {
			if renamer.MatchesPreset(rec.Name, cfg.FileTypePreset) {
				candidates = append(candidates, rec)
			}
		}

		if len(candidates) == 0 {
			fmt.Println("No files match the rename scope.")
			return nil
		}

		plan := renamer.Preview(candidates, cfg.RenameSchema)

		changed := 0
		paths := make([]string, 0, len(plan))
		for path := range plan {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		fmt.Printf("Rename preview (%d file(s)):\n\n", len(plan))
		for _, path := range paths {
			rec := findRecord(candidates, path)
			if rec == nil {
				continue
			}
			if rec.Name == plan[path] {
				continue
			}
			changed++
			fmt.Printf("  %s -> %s\n", rec.Name, plan[path])
		}
		if changed == 0 {
			fmt.Println("  (all files already have their target names)")
			return nil
		}

		if dryRun {
			fmt.Println("\n[DRY RUN MODE] No files will be renamed.")
			return nil
		}

		if !assumeYes {
			fmt.Printf("\nRename %d file(s)? (y/N): ", changed)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Rename cancelled")
				return nil
			}
		}

		exec := executor.New()
		result := exec.ApplyRenames(plan)

		fmt.Printf("\nRenamed: %d file(s)\n", result.Renamed)
		if result.Skipped > 0 {
			fmt.Printf("Skipped: %d file(s)\n", result.Skipped)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  error: %s: %s\n", e.Path, e.Message)
		}

		rememberFolder(cfg)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display or initialize the configuration",
	Long:  `Shows the configuration being used, and optionally writes the default config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initConfig {
			path, err := config.EnsureConfigExists()
			if err != nil {
				return err
			}
			fmt.Printf("Config file: %s\n", path)
			return nil
		}

		cfgPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("Config file: %s\n", cfgPath)

		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			fmt.Println("Config file does not exist. Using default configuration.")
			fmt.Println("\nRun 'dedupe config --init' to create it.")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s", data)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&folder, "folder", "", "folder to scan (overrides config)")
	rootCmd.PersistentFlags().IntVar(&daysBack, "days", 0, "only files modified in the last N days, 0 = no limit")
	rootCmd.PersistentFlags().StringVar(&namePrefix, "prefix", "", "only files whose name starts with this prefix")
	rootCmd.PersistentFlags().BoolVar(&noSubfolders, "no-subfolders", false, "do not descend into subfolders")

	for _, cmd := range []*cobra.Command{scanCmd, cleanCmd} {
		cmd.Flags().BoolVar(&useHash, "hash", false, "match by content hash")
		cmd.Flags().BoolVar(&useSize, "size", false, "match by file size")
		cmd.Flags().BoolVar(&useName, "name", false, "match by normalized file name")
		cmd.Flags().BoolVar(&useMTime, "mtime", false, "match by modification time")
		cmd.Flags().BoolVar(&useMIME, "mime", false, "match by MIME type")
		cmd.Flags().Int64Var(&hashCapMB, "hash-cap-mb", 0, "skip hashing files larger than this many MB, 0 = config default")
	}

	scanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")

	cleanCmd.Flags().BoolVar(&assumeYes, "yes", false, "keep the newest file of each group without asking")
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without deleting")
	cleanCmd.Flags().BoolVar(&permanent, "permanent", false, "delete permanently instead of using the trash")
	cleanCmd.Flags().BoolVar(&renameKept, "rename-kept", false, "rename each kept file to a timestamped name")
	cleanCmd.Flags().StringVar(&manifestPath, "manifest", "", "save a deletion manifest to this file")

	renameCmd.Flags().StringVar(&preset, "preset", "", "file type preset (all, images, videos, audio, documents, archives)")
	renameCmd.Flags().BoolVar(&assumeYes, "yes", false, "apply without confirmation")
	renameCmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview only, do not rename")

	configCmd.Flags().BoolVar(&initConfig, "init", false, "create the default config file if missing")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		var path string
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, err
		}
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}

	if folder != "" {
		cfg.Folder = folder
	}
	if cmd.Flags().Changed("days") {
		cfg.DaysBack = daysBack
	}
	if cmd.Flags().Changed("prefix") {
		cfg.NamePrefix = namePrefix
	}
	if noSubfolders {
		cfg.IncludeSubfolders = false
	}

	// Criteria flags replace the configured set entirely once any one of
	// them is given; mixing flag and config criteria would be surprising.
	criteriaFlagged := false
	for _, name := range []string{"hash", "size", "name", "mtime", "mime"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			criteriaFlagged = true
		}
	}
	if criteriaFlagged {
		cfg.Criteria = config.Criteria{
			Hash:    useHash,
			Size:    useSize,
			Name:    useName,
			ModTime: useMTime,
			MIME:    useMIME,
		}
	}
	if cmd.Flags().Lookup("hash-cap-mb") != nil && cmd.Flags().Changed("hash-cap-mb") {
		cfg.HashCap = config.HashCap{Enabled: hashCapMB > 0, MaxMB: hashCapMB}
	}

	if cfg.Folder == "" {
		return nil, fmt.Errorf("no folder to scan; pass --folder or set one in the config")
	}
	return cfg, nil
}

// runScan walks the configured folder with live progress output.
func runScan(ctx context.Context, cfg *config.Config) (*catalog.ScanOutcome, error) {
	scanner := catalog.New()
	scanner.SetProgress(func(found int, path string) {
		fmt.Printf("\r\033[KScanning... %d file(s)", found)
	})
	outcome, err := scanner.Scan(ctx, cfg.ScanScope())
	fmt.Print("\r\033[K")
	return outcome, err
}

// runScanAndGroup walks the folder, hashes candidates and builds duplicate
// groups, showing a live progress view while it runs.
func runScanAndGroup(ctx context.Context, cfg *config.Config) (*reporter.ScanReport, error) {
	rep := progress.NewReporter()

	scanner := catalog.New()
	scanner.SetProgress(func(found int, path string) {
		rep.UpdateScan(&progress.ScanProgress{
			Phase:       progress.PhaseScanning,
			CurrentPath: path,
			FilesFound:  found,
		})
	})

	grp := grouper.New()
	grp.SetProgress(func(hashed, total int) {
		rep.UpdateScan(&progress.ScanProgress{
			Phase:       progress.PhaseHashing,
			HashedFiles: hashed,
			TotalToHash: total,
		})
	})

	type scanResult struct {
		report *reporter.ScanReport
		err    error
	}
	resultCh := make(chan scanResult, 1)
	updates := rep.Subscribe()

	go func() {
		defer rep.Close()

		outcome, err := scanner.Scan(ctx, cfg.ScanScope())
		if err != nil {
			resultCh <- scanResult{err: err}
			return
		}

		groups, err := grp.Group(ctx, outcome.Records, cfg.CriteriaSet())
		if err != nil {
			resultCh <- scanResult{err: err}
			return
		}

		resultCh <- scanResult{report: &reporter.ScanReport{
			Root:              cfg.Folder,
			Groups:            groups.Groups,
			TotalFilesScanned: len(outcome.Records),
			HashSkipped:       groups.HashSkipped,
			ScanSkipped:       outcome.Skipped,
			Elapsed:           outcome.Elapsed,
		}}
	}()

	if err := ui.RunScanView(updates); err != nil {
		// The progress view failing (no TTY) is cosmetic; the scan result
		// below is what matters.
		for range updates {
		}
	}

	res := <-resultCh
	return res.report, res.err
}

func findRecord(records []catalog.FileRecord, path string) *catalog.FileRecord {
	for i := range records {
		if records[i].Path == path {
			return &records[i]
		}
	}
	return nil
}

func parseFormat(format string) reporter.OutputFormat {
	switch format {
	case "json":
		return reporter.FormatJSON
	case "yaml":
		return reporter.FormatYAML
	case "table":
		return reporter.FormatTable
	default:
		return reporter.FormatSummary
	}
}

func rememberFolder(cfg *config.Config) {
	cfg.RememberFolder(cfg.Folder)
	path := configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return
		}
	}
	if err := config.Save(cfg, path); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not save config: %v\n", err)
	}
}

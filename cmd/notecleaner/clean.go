package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
)

// outputOptions control where and in which formats results are written
type outputOptions struct {
	outputDir string
	logDir    string
	formats   []string
}

func (o *outputOptions) addFlags(cmd *cobra.Command, logsDefault string) {
	cmd.Flags().StringVarP(&o.outputDir, "output", "o", "output", "directory for cleaned files")
	cmd.Flags().StringVar(&o.logDir, "logs", logsDefault, "directory for replacement logs (empty: the output directory)")
	cmd.Flags().StringSliceVarP(&o.formats, "format", "f", []string{"csv", "txt", "xlsx", "pdf"}, "output formats")
}

// exportFormats validates the requested formats; the first one drives the cleaning run
func (o *outputOptions) exportFormats() ([]models.ExportFormat, error) {
	if len(o.formats) == 0 {
		return nil, fmt.Errorf("at least one --format is required")
	}
	formats := make([]models.ExportFormat, 0, len(o.formats))
	for _, name := range o.formats {
		format, ok := models.ParseExportFormat(name)
		if !ok {
			return nil, fmt.Errorf("unsupported format %q", name)
		}
		formats = append(formats, format)
	}
	return formats, nil
}

func (o *outputOptions) logsDir() string {
	if o.logDir == "" {
		return o.outputDir
	}
	return o.logDir
}

func newCleanCmd(opts *cliOptions) *cobra.Command {
	out := &outputOptions{}

	cmd := &cobra.Command{
		Use:   "clean FILE",
		Short: "Clean a single notes file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := out.exportFormats()
			if err != nil {
				return err
			}

			container, err := opts.newServices(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			report, err := processFile(cmd.Context(), container, args[0], outputStem(args[0]), formats, out)
			if err != nil {
				return err
			}
			report.print(cmd.OutOrStdout())
			return nil
		},
	}
	out.addFlags(cmd, "")
	return cmd
}

// fileReport lists what was written for one input file
type fileReport struct {
	input        string
	replacements int
	written      []string
}

func (r fileReport) print(w io.Writer) {
	fmt.Fprintf(w, "%s: %d replacements\n", r.input, r.replacements)
	for _, path := range r.written {
		fmt.Fprintf(w, "  wrote %s\n", path)
	}
}

// outputStem is the name an input's results are written under: its base name
// without the extension
func outputStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// sameDir reports whether a and b name the same directory
func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

// processFile cleans one file and writes the cleaned output in every format,
// plus the replacement log, summary and chart, all named after stem
func processFile(ctx context.Context, container *services.ServiceContainer, path, stem string, formats []models.ExportFormat, out *outputOptions) (fileReport, error) {
	report := fileReport{input: path}

	if sameDir(filepath.Dir(path), out.outputDir) {
		return report, fmt.Errorf("refusing to write into the folder of %s; choose another --output", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("read %s: %w", path, err)
	}

	result, err := container.Cleaner.Clean(ctx, models.Upload{
		Filename: filepath.Base(path),
		Content:  content,
		Format:   string(formats[0]),
	})
	if err != nil {
		return report, fmt.Errorf("clean %s: %w", path, err)
	}
	report.replacements = len(result.Job.Log)

	for _, dir := range []string{out.outputDir, out.logsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	base := stem
	artifacts := result.Job.Artifacts

	files := map[string][]byte{
		filepath.Join(out.outputDir, base+"."+formats[0].Extension()): artifacts[models.ArtifactOutput].Data,
	}
	for _, format := range formats[1:] {
		artifact, err := container.Exporter.Export(format, result.Original, result.Cleaned)
		if err != nil {
			return report, fmt.Errorf("export %s as %s: %w", path, format, err)
		}
		files[filepath.Join(out.outputDir, base+"."+format.Extension())] = artifact.Data
	}
	files[filepath.Join(out.logsDir(), "replacement_log_"+base+".csv")] = artifacts[models.ArtifactLog].Data
	files[filepath.Join(out.logsDir(), "replacement_summary_"+base+".csv")] = artifacts[models.ArtifactSummary].Data
	if chart, ok := artifacts[models.ArtifactChart]; ok {
		files[filepath.Join(out.logsDir(), "replacement_chart_"+base+".png")] = chart.Data
	}

	inputInfo, err := os.Stat(path)
	if err != nil {
		return report, fmt.Errorf("stat %s: %w", path, err)
	}
	for target := range files {
		if info, err := os.Stat(target); err == nil && os.SameFile(info, inputInfo) {
			return report, fmt.Errorf("refusing to overwrite input %s with %s", path, target)
		}
	}

	for target, data := range files {
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return report, fmt.Errorf("write %s: %w", target, err)
		}
		report.written = append(report.written, target)
	}
	sort.Strings(report.written)

	return report, nil
}

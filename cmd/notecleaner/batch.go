package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"clinical-note-cleaner/services"
)

func newBatchCmd(opts *cliOptions) *cobra.Command {
	out := &outputOptions{}
	var (
		inputDir    string
		workers     int
		depth       int
		maxFileSize int64
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Clean every supported file in a folder",
		Long:  "Clean every .csv, .xlsx, .txt and .docx file in the input folder. A file that fails is\nreported and skipped; the command fails at the end if any file failed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := out.exportFormats()
			if err != nil {
				return err
			}

			scanner := services.NewFolderScannerWithConfig(&services.FolderScannerConfig{
				MaxDepth:    depth,
				MaxFileSize: maxFileSize,
			})
			scan, err := scanner.ScanFolder(cmd.Context(), inputDir)
			if err != nil {
				return fmt.Errorf("read input folder: %w", err)
			}
			for _, file := range scan.Oversized {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: skipped, %d bytes exceeds --max-file-size\n", file.Path, file.Size)
			}
			inputs := make([]string, len(scan.Files))
			for i, file := range scan.Files {
				inputs[i] = file.Path
			}

			if len(inputs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no supported files in %s\n", inputDir)
				return nil
			}

			if sameDir(inputDir, out.outputDir) {
				return fmt.Errorf("--output must differ from --input (%s)", inputDir)
			}
			stems, collisions := assignStems(inputDir, inputs)

			container, err := opts.newServices(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			reports := make([]fileReport, len(inputs))
			failures := make([]error, len(inputs))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(workers, 1))
			for i, path := range inputs {
				if err, ok := collisions[path]; ok {
					reports[i], failures[i] = fileReport{input: path}, err
					continue
				}
				g.Go(func() error {
					// Per-file failures are collected, not returned, so one bad file
					// does not cancel the rest of the batch
					reports[i], failures[i] = processFile(ctx, container, path, stems[path], formats, out)
					return nil
				})
			}
			_ = g.Wait()

			failed := 0
			for i := range inputs {
				if failures[i] != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %v\n", inputs[i], failures[i])
					continue
				}
				reports[i].print(cmd.OutOrStdout())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d files, %d failed\n", len(inputs), failed)

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(inputs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "input", "folder with the files to clean")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "files cleaned in parallel")
	cmd.Flags().IntVar(&depth, "depth", 0, "levels of subfolders to include")
	cmd.Flags().Int64Var(&maxFileSize, "max-file-size", 32<<20, "skip files larger than this many bytes (0: no limit)")
	out.addFlags(cmd, "logs")
	return cmd
}

// assignStems picks the output name of every input. Files whose base names
// clash (notes.csv and notes.txt, or notes.csv in two subfolders) are named
// after their path below inputDir instead, e.g. notes_txt or sub_notes_csv.
// Inputs that still share a name are returned as collisions and not processed.
func assignStems(inputDir string, inputs []string) (map[string]string, map[string]error) {
	byStem := make(map[string][]string)
	for _, path := range inputs {
		key := strings.ToLower(outputStem(path))
		byStem[key] = append(byStem[key], path)
	}

	stems := make(map[string]string, len(inputs))
	for _, path := range inputs {
		stem := outputStem(path)
		if len(byStem[strings.ToLower(stem)]) > 1 {
			rel, err := filepath.Rel(inputDir, path)
			if err != nil {
				rel = filepath.Base(path)
			}
			stem = strings.NewReplacer(string(filepath.Separator), "_", "/", "_", ".", "_").Replace(rel)
		}
		stems[path] = stem
	}

	owners := make(map[string][]string)
	for _, path := range inputs {
		key := strings.ToLower(stems[path])
		owners[key] = append(owners[key], path)
	}
	collisions := make(map[string]error)
	for _, paths := range owners {
		if len(paths) < 2 {
			continue
		}
		for _, path := range paths {
			collisions[path] = fmt.Errorf("output name %q is shared by %s", stems[path], strings.Join(paths, ", "))
		}
	}
	return stems, collisions
}

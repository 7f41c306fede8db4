package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// InputFile is a notes file found by a folder scan
type InputFile struct {
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FolderScannerConfig configures a folder scan
type FolderScannerConfig struct {
	// MaxDepth is how many levels of subfolders are entered; 0 scans only the folder itself
	MaxDepth         int      `json:"max_depth"`
	MaxFileSize      int64    `json:"max_file_size"`
	SupportedFormats []string `json:"supported_formats"`
}

// ScanResult holds accepted files and the files skipped for being too large
type ScanResult struct {
	Files     []InputFile `json:"files"`
	Oversized []InputFile `json:"oversized"`
}

// FolderScanner finds uploadable notes files in a folder
type FolderScanner struct {
	supportedFormats map[string]bool
	maxDepth         int
	maxFileSize      int64
}

// NewFolderScanner creates a scanner for the supported input formats
func NewFolderScanner() *FolderScanner {
	return NewFolderScannerWithConfig(&FolderScannerConfig{})
}

// NewFolderScannerWithConfig creates a scanner from config; zero values keep the defaults
func NewFolderScannerWithConfig(config *FolderScannerConfig) *FolderScanner {
	formats := config.SupportedFormats
	if len(formats) == 0 {
		formats = SupportedInputExtensions
	}

	scanner := &FolderScanner{
		supportedFormats: make(map[string]bool, len(formats)),
		maxDepth:         config.MaxDepth,
		maxFileSize:      config.MaxFileSize,
	}
	for _, format := range formats {
		scanner.supportedFormats[strings.ToLower(format)] = true
	}
	return scanner
}

// ValidateFolder checks that folderPath is a readable directory
func (f *FolderScanner) ValidateFolder(folderPath string) error {
	info, err := os.Stat(folderPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("folder does not exist: %s", folderPath)
	}
	if err != nil {
		return fmt.Errorf("failed to access folder %s: %w", folderPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}
	return nil
}

// ScanFolder lists the supported files under folderPath, ordered by path
func (f *FolderScanner) ScanFolder(ctx context.Context, folderPath string) (*ScanResult, error) {
	if err := f.ValidateFolder(folderPath); err != nil {
		return nil, err
	}

	result := &ScanResult{}
	if err := f.scanRecursive(ctx, folderPath, 0, result); err != nil {
		return nil, fmt.Errorf("failed to scan folder %s: %w", folderPath, err)
	}

	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	sort.Slice(result.Oversized, func(i, j int) bool { return result.Oversized[i].Path < result.Oversized[j].Path })
	return result, nil
}

func (f *FolderScanner) scanRecursive(ctx context.Context, folderPath string, depth int, result *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", folderPath, err)
	}

	for _, entry := range entries {
		fullPath := filepath.Join(folderPath, entry.Name())

		if entry.IsDir() {
			if depth < f.maxDepth {
				if err := f.scanRecursive(ctx, fullPath, depth+1, result); err != nil {
					return err
				}
			}
			continue
		}

		if !f.isSupported(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// vanished between ReadDir and Info
			continue
		}

		file := InputFile{
			Path:       fullPath,
			Filename:   entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		}
		if f.maxFileSize > 0 && file.Size > f.maxFileSize {
			result.Oversized = append(result.Oversized, file)
			continue
		}
		result.Files = append(result.Files, file)
	}
	return nil
}

func (f *FolderScanner) isSupported(filename string) bool {
	return f.supportedFormats[strings.ToLower(filepath.Ext(filename))]
}

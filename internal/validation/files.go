package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator validates the input corpus before a pipeline run starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator.
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputDirectory checks that the directory exists and, when a glob
// pattern is given, that at least one matching file is present.
func (v *FileValidator) ValidateInputDirectory(dir string, requiredPattern string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if requiredPattern != "" {
		matches, err := filepath.Glob(filepath.Join(dir, requiredPattern))
		if err != nil {
			return fmt.Errorf("check for files: %w", err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files matching %s found in %s", requiredPattern, dir)
		}
	}
	return nil
}

// ValidateRequiredFile checks that a file exists and is not empty.
func (v *FileValidator) ValidateRequiredFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("required file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("required file %s is empty", path)
	}
	return nil
}

// ValidateTextAssets runs encoding validation across every text input file
// in the directory. Only extensions in textExtensions are scanned; binary
// workbooks are excluded.
func (v *FileValidator) ValidateTextAssets(dir string) error {
	var findings []EncodingFinding
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !isTextAsset(path) {
			return nil
		}
		if verr := ValidateUTF8File(path); verr != nil {
			var encErr *EncodingError
			if errors.As(verr, &encErr) {
				findings = append(findings, encErr.Findings...)
				return nil
			}
			return verr
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(findings) > 0 {
		v.logger.Error("text assets failed encoding validation",
			slog.String("directory", dir),
			slog.Int("findings", len(findings)),
			slog.String("first", findings[0].String()))
		return &EncodingError{File: dir, Findings: findings}
	}
	return nil
}

func isTextAsset(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".md", ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

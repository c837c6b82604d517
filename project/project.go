// Package project inspects an analysis target: it checks the path is usable
// and decides whether the project carries a test suite.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/codesentry/codesentry/errors"
)

// SourceExt is the extension of the source files codesentry analyzes.
const SourceExt = ".py"

// TestsDir is the conventional test directory checked first by DetectTests.
const TestsDir = "tests"

// NoTestsReason is returned by DetectTests when no test suite is found.
const NoTestsReason = "No tests/ directory or test_*.py / *_test.py files detected"

// Validate resolves path to an absolute directory containing at least one
// source file. A missing path or a non-directory yields ErrCodeInvalidPath;
// a directory without source files yields ErrCodeNothingToAnalyze.
func Validate(path string) (string, error) {
	abs, err := resolve(path)
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeInvalidPath, fmt.Sprintf("Path does not exist: %s", path), err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeInvalidPath, fmt.Sprintf("Path does not exist: %s", abs), err)
	}
	if !info.IsDir() {
		return "", cerrors.New(cerrors.ErrCodeInvalidPath, fmt.Sprintf("Path is not a directory: %s", abs))
	}

	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}

	found, err := hasSourceFiles(abs)
	if err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeInvalidPath, fmt.Sprintf("Failed to scan %s", abs), err)
	}
	if !found {
		return "", cerrors.New(cerrors.ErrCodeNothingToAnalyze,
			fmt.Sprintf("No Python files found in %s. Nothing to analyze.", abs))
	}

	return abs, nil
}

// DetectTests reports whether root has a test suite, and why.
//
// A tests/ directory directly under root wins. Otherwise directories are
// searched depth first, each directory's own files before any of its
// subdirectories, and the first test_*.py or *_test.py file found is
// reported. The order decides which file name appears in the reason.
func DetectTests(root string) (bool, string) {
	if info, err := os.Stat(filepath.Join(root, TestsDir)); err == nil && info.IsDir() {
		return true, "Found tests/ directory"
	}

	if match := findTestFile(root); match != "" {
		return true, fmt.Sprintf("Found test file: %s", match)
	}
	return false, NoTestsReason
}

// findTestFile returns the base name of the first test file under dir.
func findTestFile(dir string) string {
	// Unreadable directories cannot contain a detectable test file; whatever
	// was read before the error is still searched.
	entries, _ := os.ReadDir(dir)

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if isTestFile(e.Name()) {
			return e.Name()
		}
	}

	for _, sub := range subdirs {
		if match := findTestFile(filepath.Join(dir, sub)); match != "" {
			return match
		}
	}
	return ""
}

func isTestFile(name string) bool {
	if !strings.HasSuffix(name, SourceExt) {
		return false
	}
	return strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test"+SourceExt)
}

func hasSourceFiles(root string) (bool, error) {
	found := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return skipEntry(d)
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), SourceExt) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}

func skipEntry(d fs.DirEntry) error {
	if d != nil && d.IsDir() {
		return fs.SkipDir
	}
	return nil
}

func resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

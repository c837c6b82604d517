// Package report writes the JSON and markdown artifacts of a codesentry run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	cerrors "github.com/codesentry/codesentry/errors"
	"github.com/codesentry/codesentry/model"
)

const (
	JSONFileName     = "codesentry_report.json"
	MarkdownFileName = "codesentry_report.md"
)

// Clock abstracts time.Now for deterministic reports in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Paths are the locations of the written report files.
type Paths struct {
	JSON     string
	Markdown string
}

type Writer struct {
	clock Clock
}

func NewWriter(clock Clock) *Writer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Writer{clock: clock}
}

// Write stores both report files in outDir, or in the analyzed repository
// when outDir is empty. Existing files are overwritten. Any failure is
// returned as an ErrCodeReportWrite error.
func (w *Writer) Write(r model.RunReport, outDir string) (Paths, error) {
	if outDir == "" {
		outDir = r.RepoPath
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = w.clock.Now()
	}
	r.GeneratedAt = r.GeneratedAt.UTC()
	if r.Versions == nil {
		r.Versions = model.VersionMap{}
	}
	if r.Tools == nil {
		r.Tools = model.NewResultSet()
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return Paths{}, cerrors.Wrap(cerrors.ErrCodeReportWrite,
			fmt.Sprintf("failed to create output directory %s", outDir), err)
	}

	paths := Paths{
		JSON:     filepath.Join(outDir, JSONFileName),
		Markdown: filepath.Join(outDir, MarkdownFileName),
	}

	data, err := marshalReport(r)
	if err != nil {
		return Paths{}, cerrors.Wrap(cerrors.ErrCodeReportWrite, "failed to encode JSON report", err)
	}
	if err := os.WriteFile(paths.JSON, data, 0644); err != nil {
		return Paths{}, cerrors.Wrap(cerrors.ErrCodeReportWrite, "failed to write JSON report", err)
	}

	if err := os.WriteFile(paths.Markdown, []byte(RenderMarkdown(r)), 0644); err != nil {
		return Paths{}, cerrors.Wrap(cerrors.ErrCodeReportWrite, "failed to write markdown report", err)
	}

	return paths, nil
}

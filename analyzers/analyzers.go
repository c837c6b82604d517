// Package analyzers binds the fixed set of analysis tools codesentry runs to
// the process runner.
package analyzers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codesentry/codesentry/model"
	"github.com/codesentry/codesentry/runner"
	"github.com/rs/zerolog"
)

// DefaultTimeout is the per-analyzer timeout used when none is configured.
const DefaultTimeout = 300 * time.Second

// VersionTimeout bounds each --version probe.
const VersionTimeout = 10 * time.Second

// Analyzer binds a tool name to the command line that runs it.
type Analyzer struct {
	Name string
	Args []string
}

// Executable returns the program the analyzer invokes.
func (a Analyzer) Executable() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Args[0]
}

// Catalog is the fixed set of analyzers. Exactly one of Tests and Lint runs
// in any pipeline.
type Catalog struct {
	Style    Analyzer
	Security Analyzer
	Tests    Analyzer
	Lint     Analyzer
	// Language runtime, only probed for its version
	Runtime Analyzer
}

// DefaultCatalog returns the Python tool catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Style:    Analyzer{Name: "flake8", Args: []string{"flake8", "."}},
		Security: Analyzer{Name: "bandit", Args: []string{"bandit", "-r", "."}},
		Tests:    Analyzer{Name: "pytest", Args: []string{"pytest"}},
		// Fallback when no tests are detected
		Lint:    Analyzer{Name: "pylint", Args: []string{"pylint", "."}},
		Runtime: Analyzer{Name: "python", Args: []string{"python3"}},
	}
}

// Probed returns the analyzers whose versions are collected, runtime first.
func (c Catalog) Probed() []Analyzer {
	return []Analyzer{c.Runtime, c.Style, c.Security, c.Tests, c.Lint}
}

// Set executes catalog analyzers through a Runner with one shared timeout.
type Set struct {
	logger  zerolog.Logger
	runner  *runner.Runner
	catalog Catalog
	timeout time.Duration
}

func New(logger zerolog.Logger, r *runner.Runner, catalog Catalog, timeout time.Duration) *Set {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Set{
		logger:  logger,
		runner:  r,
		catalog: catalog,
		timeout: timeout,
	}
}

func (s *Set) Catalog() Catalog {
	return s.catalog
}

// Run executes a against the project in dir.
func (s *Set) Run(ctx context.Context, a Analyzer, dir string) model.ToolResult {
	return s.runner.Run(ctx, runner.Command{
		Label:   a.Name,
		Args:    a.Args,
		Dir:     dir,
		Timeout: s.timeout,
	})
}

// Versions probes every catalog tool with --version. It never fails: tools
// that cannot report a version get a readable message instead.
func (s *Set) Versions(ctx context.Context) model.VersionMap {
	versions := make(model.VersionMap)
	for _, a := range s.catalog.Probed() {
		versions[a.Name] = s.version(ctx, a)
	}
	return versions
}

func (s *Set) version(ctx context.Context, a Analyzer) string {
	res := s.runner.Run(ctx, runner.Command{
		Label:   a.Name,
		Args:    []string{a.Executable(), "--version"},
		Timeout: VersionTimeout,
	})

	switch res.Outcome {
	case model.OutcomeNotFound:
		return fmt.Sprintf("%s not installed or not on PATH", a.Name)
	case model.OutcomeTimedOut:
		return fmt.Sprintf("%s version check timed out", a.Name)
	case model.OutcomeFailed:
		cause := strings.TrimPrefix(res.Output, fmt.Sprintf("Unexpected error running %s: ", a.Name))
		return fmt.Sprintf("%s version check error: %s", a.Name, cause)
	}

	output := strings.TrimSpace(res.Output)
	if output == "" {
		return fmt.Sprintf("%s version unknown (empty output)", a.Name)
	}
	line, _, _ := strings.Cut(output, "\n")
	s.logger.Debug().Str("tool", a.Name).Str("version", line).Msg("Collected tool version")
	return strings.TrimSpace(line)
}

package model

import "time"

// PipelineStatus is the aggregate verdict over a ResultSet
type PipelineStatus string

const (
	StatusPassed PipelineStatus = "PASSED"
	StatusFailed PipelineStatus = "FAILED"
)

// VersionMap maps a tool name to its version line or an unavailability message
type VersionMap map[string]string

// RunReport is the full record of one codesentry run, as written to disk.
type RunReport struct {
	// Time the report was generated (UTC)
	GeneratedAt time.Time `json:"generated_at_utc"`
	// Absolute path of the analyzed project
	RepoPath string `json:"repo_path"`
	// Aggregate verdict over Tools
	PipelineStatus PipelineStatus `json:"pipeline_status"`
	// Tool versions collected before the analyzers ran
	Versions VersionMap `json:"versions"`
	// Per-analyzer results keyed by analyzer name
	Tools *ResultSet `json:"tools"`
	// Summary text, verbatim
	Summary string `json:"ai_summary_markdown"`

	// Git information of the analyzed project (markdown only)
	Git *Git `json:"-"`
}

// Git contains git repository information
type Git struct {
	Commit string
	Branch string
}

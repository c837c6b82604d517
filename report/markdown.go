package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/codesentry/codesentry/model"
	"github.com/codesentry/codesentry/toolparse"
)

// RenderMarkdown renders the human-readable report.
func RenderMarkdown(r model.RunReport) string {
	var b strings.Builder
	b.WriteString("# CodeSentry Report\n")
	fmt.Fprintf(&b, "_Status: %s | Generated: %s | Repo: %s_\n",
		r.PipelineStatus, r.GeneratedAt.Format(time.RFC3339Nano), r.RepoPath)
	if r.Git != nil && r.Git.Commit != "" {
		fmt.Fprintf(&b, "_Commit: %s", shortCommit(r.Git.Commit))
		if r.Git.Branch != "" {
			fmt.Fprintf(&b, " (%s)", r.Git.Branch)
		}
		b.WriteString("_\n")
	}

	b.WriteString("\n## AI Summary\n")
	b.WriteString(strings.TrimSpace(r.Summary))
	b.WriteString("\n\n## Tool Results\n")

	for _, name := range r.Tools.Names() {
		res, _ := r.Tools.Get(name)

		// Headings use the analyzer key, matching the JSON report.
		fmt.Fprintf(&b, "### %s\n", name)
		// Sentinel exit codes mean the output is our own message, not the tool's.
		if res.ExitCode >= 0 {
			if line, ok := toolparse.Highlight(name, res.Output); ok {
				fmt.Fprintf(&b, "_%s_\n\n", line)
			}
		}

		fence := codeFence(res.Output)
		b.WriteString(fence + "\n")
		b.WriteString(res.Output)
		if res.Output != "" && !strings.HasSuffix(res.Output, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(fence + "\n\n")
	}

	return b.String()
}

// codeFence returns a backtick fence longer than any backtick run in s.
func codeFence(s string) string {
	fence := "```"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	return fence
}

func shortCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}

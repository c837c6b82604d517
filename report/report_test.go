package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cerrors "github.com/codesentry/codesentry/errors"
	"github.com/codesentry/codesentry/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testTime = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleReport(repo string) model.RunReport {
	tools := model.NewResultSet()
	tools.Add("flake8", model.ToolResult{Tool: "flake8", ExitCode: 1, DurationSec: 0.25,
		Output: "./app.py:1:1: F401 'os' imported but unused\n"})
	tools.Add("bandit", model.ToolResult{Tool: "bandit", ExitCode: model.ExitCodeNotFound,
		Output: "bandit is not installed or not on PATH.", Outcome: model.OutcomeNotFound})
	tools.Add("pytest", model.ToolResult{Tool: "pytest", ExitCode: 0, DurationSec: 1.5,
		Output: "===== 2 passed in 0.01s ====="})

	return model.RunReport{
		RepoPath:       repo,
		PipelineStatus: tools.Status(),
		Versions:       model.VersionMap{"python": "Python 3.12.1", "bandit": "bandit not installed or not on PATH"},
		Tools:          tools,
		Summary:        "\n## Critical Risks\n- none\n\n",
	}
}

func TestWriteDefaultsToRepoRoot(t *testing.T) {
	repo := t.TempDir()
	w := NewWriter(fixedClock{testTime})

	paths, err := w.Write(sampleReport(repo), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(repo, JSONFileName), paths.JSON)
	assert.Equal(t, filepath.Join(repo, MarkdownFileName), paths.Markdown)
	assert.FileExists(t, paths.JSON)
	assert.FileExists(t, paths.Markdown)
}

func TestWriteJSON(t *testing.T) {
	repo := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "reports")

	paths, err := NewWriter(fixedClock{testTime}).Write(sampleReport(repo), out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, JSONFileName), paths.JSON)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	var keys []string
	for k := range raw {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"generated_at_utc", "repo_path", "pipeline_status", "versions", "tools", "ai_summary_markdown",
	}, keys)

	var decoded model.RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, testTime, decoded.GeneratedAt)
	assert.Equal(t, repo, decoded.RepoPath)
	assert.Equal(t, model.StatusFailed, decoded.PipelineStatus)
	assert.Equal(t, []string{"flake8", "bandit", "pytest"}, decoded.Tools.Names())
	assert.Equal(t, "\n## Critical Risks\n- none\n\n", decoded.Summary)

	bandit, ok := decoded.Tools.Get("bandit")
	require.True(t, ok)
	assert.Equal(t, model.ExitCodeNotFound, bandit.ExitCode)
}

func TestWriteMarkdown(t *testing.T) {
	repo := t.TempDir()
	r := sampleReport(repo)
	r.Git = &model.Git{Commit: "0123456789abcdef", Branch: "main"}

	paths, err := NewWriter(fixedClock{testTime}).Write(r, "")
	require.NoError(t, err)

	data, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	md := string(data)

	assert.True(t, strings.HasPrefix(md, "# CodeSentry Report\n"))
	assert.Contains(t, md, "_Status: FAILED | Generated: 2025-03-14T09:26:53Z | Repo: "+repo+"_\n")
	assert.Contains(t, md, "_Commit: 01234567 (main)_\n")
	assert.Contains(t, md, "## AI Summary\n## Critical Risks\n- none\n\n## Tool Results\n")
	assert.Contains(t, md, "### flake8\n_Style issues: 1_\n\n```\n./app.py:1:1: F401 'os' imported but unused\n```\n")
	assert.Contains(t, md, "### bandit\n```\nbandit is not installed or not on PATH.\n```\n")
	assert.Contains(t, md, "### pytest\n_Tests: 2 passed, 0 failed, 0 skipped_\n")
}

func TestWriteOverwrites(t *testing.T) {
	repo := t.TempDir()
	w := NewWriter(fixedClock{testTime})

	_, err := w.Write(sampleReport(repo), "")
	require.NoError(t, err)

	second := sampleReport(repo)
	second.Summary = "second run"
	paths, err := w.Write(second, "")
	require.NoError(t, err)

	data, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second run")
	assert.NotContains(t, string(data), "Critical Risks")
}

func TestWriteEmptyReport(t *testing.T) {
	repo := t.TempDir()
	paths, err := NewWriter(fixedClock{testTime}).Write(model.RunReport{
		RepoPath:       repo,
		PipelineStatus: model.StatusPassed,
	}, "")
	require.NoError(t, err)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tools": {}`)
	assert.Contains(t, string(data), `"versions": {}`)
}

func TestWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := NewWriter(fixedClock{testTime}).Write(sampleReport(dir), filepath.Join(blocker, "out"))
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeReportWrite, cerrors.CodeOf(err))
}

func TestWriteRejectsInvalidStatus(t *testing.T) {
	r := sampleReport(t.TempDir())
	r.PipelineStatus = "UNKNOWN"

	_, err := NewWriter(fixedClock{testTime}).Write(r, "")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeReportWrite, cerrors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]byte(`{
		"generated_at_utc": "2025-03-14T09:26:53Z",
		"repo_path": "/repo",
		"pipeline_status": "PASSED",
		"versions": {},
		"tools": {"flake8": {"tool": "flake8", "exit_code": 0, "duration_sec": 0.1, "output": ""}},
		"ai_summary_markdown": ""
	}`)))

	assert.Error(t, Validate([]byte(`{"repo_path": "/repo"}`)))
	assert.Error(t, Validate([]byte(`not json`)))
	assert.Error(t, Validate([]byte(`{
		"generated_at_utc": "2025-03-14T09:26:53Z",
		"repo_path": "/repo",
		"pipeline_status": "PASSED",
		"versions": {},
		"tools": {"flake8": {"tool": "flake8", "exit_code": 0.5, "duration_sec": 0.1, "output": ""}},
		"ai_summary_markdown": ""
	}`)))
}

func TestCodeFence(t *testing.T) {
	assert.Equal(t, "```", codeFence("plain"))
	assert.Equal(t, "````", codeFence("has ``` inside"))
	assert.Equal(t, "`````", codeFence("has ```` inside"))
}

func TestRenderMarkdownEmptyOutput(t *testing.T) {
	tools := model.NewResultSet()
	tools.Add("pylint", model.ToolResult{Tool: "pylint"})

	md := RenderMarkdown(model.RunReport{RepoPath: "/repo", PipelineStatus: model.StatusPassed, Tools: tools})
	assert.Contains(t, md, "### pylint\n```\n```\n")
}

func TestRenderMarkdownCrashedStyleCheck(t *testing.T) {
	tools := model.NewResultSet()
	tools.Add("flake8", model.ToolResult{Tool: "flake8", ExitCode: 1,
		Output: "Traceback (most recent call last):\nImportError: cannot import name 'x'\n"})

	md := RenderMarkdown(model.RunReport{RepoPath: "/repo", PipelineStatus: model.StatusFailed, Tools: tools})
	assert.Contains(t, md, "### flake8\n```\nTraceback")
	assert.NotContains(t, md, "Style issues")
}

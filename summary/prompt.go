package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/codesentry/codesentry/analyzers"
	"github.com/codesentry/codesentry/model"
)

// TruncationMarker is appended to tool output cut by Trim.
const TruncationMarker = "\n... [truncated]"

// SystemPrompt instructs the model how to review tool output.
const SystemPrompt = `You are a senior AI code reviewer focused on Python repositories. ` +
	`You are concise, accurate, and action-oriented. You prioritize security > correctness ` +
	`> maintainability > style. You reference files/lines if present in tool outputs.
`

const userPromptTemplate = `You are given outputs from automatic code checks on a Python repo.
Provide four sections with markdown headers and bullet points:
1) Critical Risks (security, failing tests, crashes)
2) High-Value Fixes (highest ROI refactors)
3) Lint/Style Themes (recurring issues)
4) Recommended Next Steps (concrete actions)

Context:
- Repo path: %s
- Chosen analyzers: %s
- %s (trimmed):
%s
- %s (trimmed):
%s
- tests_or_lint (%s, trimmed):
%s

Rules:
- Keep total under 250 words.
- Use bullets, no long paragraphs.
- If no tests detected, propose a minimal test plan.
`

// Trim returns text unchanged when it has at most maxChars characters;
// otherwise it returns the first maxChars characters followed by
// TruncationMarker.
func Trim(text string, maxChars int) string {
	if maxChars < 0 {
		maxChars = 0
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	cut := 0
	for i := 0; i < maxChars; i++ {
		_, size := utf8.DecodeRuneInString(text[cut:])
		cut += size
	}
	return text[:cut] + TruncationMarker
}

// BuildPrompt composes the user prompt from the results of one run.
// The tests-or-lint section uses whichever of the two analyzers ran.
func BuildPrompt(repoPath string, results *model.ResultSet, catalog analyzers.Catalog, maxChars int) string {
	testsOrLint := catalog.Lint.Name
	if results.Has(catalog.Tests.Name) {
		testsOrLint = catalog.Tests.Name
	}

	return fmt.Sprintf(userPromptTemplate,
		repoPath,
		strings.Join(results.Names(), ", "),
		catalog.Style.Name, Trim(results.Output(catalog.Style.Name), maxChars),
		catalog.Security.Name, Trim(results.Output(catalog.Security.Name), maxChars),
		testsOrLint, Trim(results.Output(testsOrLint), maxChars),
	)
}

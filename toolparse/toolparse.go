// Package toolparse extracts headline numbers from analyzer output for the
// markdown report. Parsing is best effort: output that does not match the
// expected format yields no highlight.
package toolparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Static regexes compiled once at package init.
var (
	pytestPassedRegex  = regexp.MustCompile(`(\d+) passed`)
	pytestFailedRegex  = regexp.MustCompile(`(\d+) failed`)
	pytestSkippedRegex = regexp.MustCompile(`(\d+) skipped`)
	pytestErrorsRegex  = regexp.MustCompile(`(\d+) errors?\b`)
	pytestSummaryRegex = regexp.MustCompile(`\b\d+ (?:passed|failed|skipped|errors?)\b`)

	pylintScoreRegex = regexp.MustCompile(`rated at (-?\d+(?:\.\d+)?)/10`)

	// path:line:col: CODE message
	flake8IssueRegex = regexp.MustCompile(`(?m)^.+?:\d+:\d+: [A-Z]+\d+ `)

	banditSeverityRegex = regexp.MustCompile(`(?m)^\s*(Low|Medium|High):\s*(\d+)`)
)

const (
	banditSeverityHeader   = "Total issues (by severity):"
	banditConfidenceHeader = "Total issues (by confidence):"
)

// TestCounts holds parsed pytest result counts.
type TestCounts struct {
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Parsed  bool // true if any count was found
}

// Severity holds bandit issue totals by severity.
type Severity struct {
	High   int
	Medium int
	Low    int
}

// Pytest extracts counts from the pytest summary line such as
//
//	======= 45 passed, 2 failed, 1 skipped in 0.12s =======
//
// The summary is the last line carrying counts; earlier lines (captured
// test logs, for instance) are ignored.
func Pytest(output string) TestCounts {
	counts := TestCounts{}
	line, ok := lastSummaryLine(output)
	if !ok {
		return counts
	}
	for _, m := range []struct {
		re  *regexp.Regexp
		dst *int
	}{
		{pytestPassedRegex, &counts.Passed},
		{pytestFailedRegex, &counts.Failed},
		{pytestSkippedRegex, &counts.Skipped},
		{pytestErrorsRegex, &counts.Errors},
	} {
		if match := m.re.FindStringSubmatch(line); len(match) >= 2 {
			*m.dst, _ = strconv.Atoi(match[1])
			counts.Parsed = true
		}
	}
	return counts
}

func lastSummaryLine(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if pytestSummaryRegex.MatchString(lines[i]) {
			return lines[i], true
		}
	}
	return "", false
}

// PylintScore extracts the score from "Your code has been rated at 7.50/10".
func PylintScore(output string) (float64, bool) {
	match := pylintScoreRegex.FindStringSubmatch(output)
	if len(match) < 2 {
		return 0, false
	}
	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// Flake8Issues counts reported violations.
func Flake8Issues(output string) int {
	return len(flake8IssueRegex.FindAllStringIndex(output, -1))
}

// BanditSeverity reads the "Total issues (by severity)" block of a bandit
// text report.
func BanditSeverity(output string) (Severity, bool) {
	_, block, found := strings.Cut(output, banditSeverityHeader)
	if !found {
		return Severity{}, false
	}
	block, _, _ = strings.Cut(block, banditConfidenceHeader)

	sev := Severity{}
	parsed := false
	for _, match := range banditSeverityRegex.FindAllStringSubmatch(block, -1) {
		n, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		switch match[1] {
		case "High":
			sev.High = n
		case "Medium":
			sev.Medium = n
		case "Low":
			sev.Low = n
		}
		parsed = true
	}
	return sev, parsed
}

// Highlight returns a one-line summary of the output of the named tool, or
// false when the tool is unknown or its output could not be parsed.
func Highlight(tool, output string) (string, bool) {
	switch tool {
	case "pytest":
		c := Pytest(output)
		if !c.Parsed {
			return "", false
		}
		line := fmt.Sprintf("Tests: %d passed, %d failed, %d skipped", c.Passed, c.Failed, c.Skipped)
		if c.Errors > 0 {
			line += fmt.Sprintf(", %d errors", c.Errors)
		}
		return line, true

	case "pylint":
		score, ok := PylintScore(output)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("Pylint score: %.2f/10", score), true

	case "flake8":
		n := Flake8Issues(output)
		// Output without a single violation line is a crash, not a clean run.
		if n == 0 && strings.TrimSpace(output) != "" {
			return "", false
		}
		return fmt.Sprintf("Style issues: %d", n), true

	case "bandit":
		sev, ok := BanditSeverity(output)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("Security issues: %d high, %d medium, %d low", sev.High, sev.Medium, sev.Low), true
	}
	return "", false
}

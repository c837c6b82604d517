package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sentinel exit codes reported when a tool could not run to completion.
// Real process exit codes are never negative, so these stay distinguishable.
const (
	ExitCodeNotFound = -127
	ExitCodeFailed   = -1
)

// Outcome classifies how an analyzer invocation ended
type Outcome uint8

const (
	// OutcomeCompleted means the process ran and exited on its own
	OutcomeCompleted Outcome = iota
	// OutcomeNotFound means the executable could not be located
	OutcomeNotFound
	// OutcomeTimedOut means the process was killed at its deadline
	OutcomeTimedOut
	// OutcomeFailed means the process could not be started or waited on
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// ToolResult is the record of a single analyzer invocation.
type ToolResult struct {
	// Name of the tool (e.g. "flake8")
	Tool string `json:"tool"`
	// Process exit code, or one of the sentinel exit codes
	ExitCode int `json:"exit_code"`
	// Wall-clock duration in seconds, millisecond precision
	DurationSec float64 `json:"duration_sec"`
	// Combined stdout and stderr
	Output string `json:"output"`
	// How the invocation ended; derivable from ExitCode for reports, so not serialized
	Outcome Outcome `json:"-"`
}

// Passed reports whether the tool ran and exited zero.
func (r ToolResult) Passed() bool {
	return r.ExitCode == 0
}

// ResultSet holds tool results keyed by analyzer name, in insertion order.
// The zero value is ready to use.
type ResultSet struct {
	order   []string
	results map[string]ToolResult
}

func NewResultSet() *ResultSet {
	return &ResultSet{}
}

// Add records the result under name. Re-adding a name replaces the result
// but keeps its original position.
func (s *ResultSet) Add(name string, res ToolResult) {
	if s.results == nil {
		s.results = make(map[string]ToolResult)
	}
	if _, ok := s.results[name]; !ok {
		s.order = append(s.order, name)
	}
	s.results[name] = res
}

func (s *ResultSet) Get(name string) (ToolResult, bool) {
	if s == nil {
		return ToolResult{}, false
	}
	res, ok := s.results[name]
	return res, ok
}

func (s *ResultSet) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Output returns the output recorded for name, or "" when it is absent.
func (s *ResultSet) Output(name string) string {
	res, _ := s.Get(name)
	return res.Output
}

// Names returns analyzer names in insertion order.
func (s *ResultSet) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

func (s *ResultSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Status folds the set into a pipeline verdict.
func (s *ResultSet) Status() PipelineStatus {
	if s == nil {
		return StatusPassed
	}
	for _, name := range s.order {
		if !s.results[name].Passed() {
			return StatusFailed
		}
	}
	return StatusPassed
}

// MarshalJSON encodes the set as an object whose keys keep insertion order.
func (s *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if s != nil {
		for i, name := range s.order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(s.results[name])
			if err != nil {
				return nil, fmt.Errorf("failed to marshal result %q: %w", name, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of results, preserving the document's key order.
func (s *ResultSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result set: expected object, got %v", tok)
	}

	*s = ResultSet{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("result set: expected key, got %v", tok)
		}
		var res ToolResult
		if err := dec.Decode(&res); err != nil {
			return fmt.Errorf("result set: decode %q: %w", name, err)
		}
		s.Add(name, res)
	}
	_, err = dec.Token()
	return err
}

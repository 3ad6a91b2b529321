// Package testutil provides shared test helpers for the schyntax tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenariosDir is the path of the shared scenarios relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario is one schedule together with the behavior expected of it.
type Scenario struct {
	Name     string         `json:"name"`
	Schedule string         `json:"schedule"`
	Anchor   string         `json:"anchor,omitempty"`
	Meta     *ScenarioMeta  `json:"meta,omitempty"`
	Expect   ExpectedResult `json:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// ExpectedResult describes the outcome of compiling and searching a schedule.
// Times are RFC 3339.
type ExpectedResult struct {
	// Next lists successive results of Next starting at the anchor.
	Next []string `json:"next,omitempty"`
	// Previous lists successive results of Previous starting at the
	// anchor, each search resuming one second before the last result.
	Previous []string `json:"previous,omitempty"`
	// Matches and NotMatches are instants tested with Matches.
	Matches    []string `json:"matches,omitempty"`
	NotMatches []string `json:"notMatches,omitempty"`
	// ErrorCode is the diagnostic code of an expected failure, from
	// compilation or from the first search.
	ErrorCode string `json:"errorCode,omitempty"`
	// ErrorIndex is the source offset the failure must point at.
	ErrorIndex *int `json:"errorIndex,omitempty"`
	// Format is the expected canonical text.
	Format string `json:"format,omitempty"`
}

// LoadScenarios reads a JSON array of scenarios from path. Scenarios
// without a name are named after their position in the file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Scenario
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range out {
		if out[i].Name == "" {
			out[i].Name = fmt.Sprintf("%s-%d", base, i)
		}
	}
	return out, nil
}

// ListScenarioFiles returns the JSON files under root in name order.
func ListScenarioFiles(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

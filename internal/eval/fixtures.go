package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFixtures reads a node-evaluation fixture file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied fixture path
	if err != nil {
		return Fixtures{}, fmt.Errorf("reading fixtures: %w", err)
	}
	var fixtures Fixtures
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return Fixtures{}, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}
	return fixtures, nil
}

// LoadTestCases reads a LASH suite file: a list of {input, expected,
// category} entries.
func LoadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied suite path
	if err != nil {
		return nil, fmt.Errorf("reading test cases: %w", err)
	}
	var cases []TestCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing test cases %s: %w", path, err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases in %s", path)
	}
	return cases, nil
}

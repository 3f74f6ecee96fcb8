package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/relaxir/internal/bridge"
)

// FormatTrace renders a result as the line-oriented text stored in golden
// files:
//
//	scenario <name>
//	<one line per trace event>
//	result pass|fail
//	  <one line per failure>
func FormatTrace(result *Result) []byte {
	var buf strings.Builder
	buf.WriteString("scenario " + result.Scenario + "\n")
	for _, ev := range result.Trace {
		buf.WriteString(ev.String() + "\n")
	}
	if result.Pass {
		buf.WriteString("result pass\n")
	} else {
		buf.WriteString("result fail\n")
		for _, f := range result.Failures {
			first, _, _ := strings.Cut(f, "\n")
			buf.WriteString("  " + first + "\n")
		}
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, b *bridge.Bridge, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, b, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatTrace(result))
}

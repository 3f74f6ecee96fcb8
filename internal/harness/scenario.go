package harness

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relaxir/internal/bridge"
)

// validIdentifier matches binding names. References are written as $name
// followed by field selectors, so names stay plain identifiers.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Scenario is a scripted sequence of bridge calls plus assertions over the
// nodes they produced.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order against a bridge.
	Steps []Step `yaml:"steps"`

	// Assertions run after every step succeeded.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one entry point.
type Step struct {
	// Bind names the result so later steps and assertions can reference it
	// as $name. The harness owns bound nodes until the run ends.
	Bind string `yaml:"bind,omitempty"`

	// Call is the entry point name, e.g. "relax.Var".
	Call string `yaml:"call"`

	// Args maps parameter names to values. Omitted parameters are passed as
	// null. Strings starting with "$" are references; "$$" escapes a literal
	// dollar sign.
	Args map[string]any `yaml:"args,omitempty"`

	// ExpectError is the outcome the call must fail with: argument_error,
	// engine_error or type_mismatch.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion checks a property of bound nodes.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Ref is the node under test (is_a, not_is_a, name_hint, shape).
	Ref string `yaml:"ref,omitempty"`

	// Refs are the nodes compared (same, distinct, equal_fingerprint).
	Refs []string `yaml:"refs,omitempty"`

	// Kind is a registered type key (is_a, not_is_a).
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected name hint (name_hint).
	Value string `yaml:"value,omitempty"`

	// Shape is the expected tensor shape (shape).
	Shape []int64 `yaml:"shape,omitempty"`
}

// Assertion type constants.
const (
	AssertIsA              = "is_a"
	AssertNotIsA           = "not_is_a"
	AssertSame             = "same"
	AssertDistinct         = "distinct"
	AssertEqualFingerprint = "equal_fingerprint"
	AssertNameHint         = "name_hint"
	AssertShape            = "shape"
)

var expectedOutcomes = map[string]bool{
	string(bridge.OutcomeArgumentError): true,
	string(bridge.OutcomeEngineError):   true,
	string(bridge.OutcomeTypeMismatch):  true,
}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// such as "assertion:" fail loudly.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// binding is defined once before it could be referenced.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	bound := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Call == "" {
			return fmt.Errorf("steps[%d]: call is required", i)
		}
		if step.ExpectError != "" && !expectedOutcomes[step.ExpectError] {
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
		}
		if step.Bind == "" {
			continue
		}
		if step.ExpectError != "" {
			return fmt.Errorf("steps[%d]: bind and expect_error are mutually exclusive", i)
		}
		if !validIdentifier.MatchString(step.Bind) {
			return fmt.Errorf("steps[%d]: invalid binding name %q", i, step.Bind)
		}
		if bound[step.Bind] {
			return fmt.Errorf("steps[%d]: %q is already bound", i, step.Bind)
		}
		bound[step.Bind] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertIsA, AssertNotIsA:
		if a.Ref == "" || a.Kind == "" {
			return fmt.Errorf("assertions[%d]: %s requires ref and kind", index, a.Type)
		}
	case AssertSame, AssertDistinct, AssertEqualFingerprint:
		if len(a.Refs) < 2 {
			return fmt.Errorf("assertions[%d]: %s requires at least two refs", index, a.Type)
		}
	case AssertNameHint:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: name_hint requires ref", index)
		}
	case AssertShape:
		if a.Ref == "" || a.Shape == nil {
			return fmt.Errorf("assertions[%d]: shape requires ref and shape", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}

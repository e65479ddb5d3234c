package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultStartTime is the clock reading at the start of every scenario
// unless the scenario sets start_time.
const DefaultStartTime = 1000

// Scenario is a sequence of transactions submitted to a fresh ledger,
// followed by assertions on the resulting records.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartTime is the initial clock reading. Zero means DefaultStartTime.
	StartTime int64 `yaml:"start_time,omitempty"`

	// StrictContent enables the social program's structural content check.
	StrictContent bool `yaml:"strict_content,omitempty"`

	// Setup transactions must all commit; a rejection aborts the run.
	Setup []TxStep `yaml:"setup,omitempty"`

	// Flow transactions are checked against their expect clauses.
	Flow []TxStep `yaml:"flow"`

	// Assertions validate the final records.
	Assertions []Assertion `yaml:"assertions"`
}

// TxStep is one transaction.
type TxStep struct {
	// Name labels the step in traces and errors.
	Name string `yaml:"name,omitempty"`

	// Advance moves the clock forward by this many seconds before submitting.
	Advance int64 `yaml:"advance,omitempty"`

	// Signers are identity names whose keys sign the transaction.
	Signers []string `yaml:"signers"`

	// Instructions run in order.
	Instructions []Op `yaml:"instructions"`

	// Expect is the expected outcome. Nil means the step must commit.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Op builds one instruction. Args reference identities by name; string
// values may contain ${name} (an identity's base58 address) and ${now}
// (the clock reading the step executes at).
type Op struct {
	Op   string         `yaml:"op"`
	Args map[string]any `yaml:"args,omitempty"`
}

// ExpectClause specifies a transaction outcome.
type ExpectClause struct {
	// Status is "committed" or "rejected".
	Status string `yaml:"status"`

	// Code is the expected rejection code.
	Code string `yaml:"code,omitempty"`

	// Index is the expected failing instruction. Nil skips the check.
	Index *int `yaml:"index,omitempty"`
}

// Transaction outcomes.
const (
	StatusCommitted = "committed"
	StatusRejected  = "rejected"
)

// Assertion validates a record after the flow.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Owner names the profile owner (profile, absent).
	Owner string `yaml:"owner,omitempty"`

	// Author and TS locate a post (post, absent).
	Author string `yaml:"author,omitempty"`
	TS     *int64 `yaml:"ts,omitempty"`

	// Slot names a message slot identity (message, absent).
	Slot string `yaml:"slot,omitempty"`

	// Record is the record kind for absent: profile, post or message.
	Record string `yaml:"record,omitempty"`

	// Expect is a subset of record fields. Identity-valued fields (owner,
	// author, sender, recipient) are given as names.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Code and Count are used by rejection_count.
	Code  string `yaml:"code,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertProfile        = "profile"
	AssertPost           = "post"
	AssertMessage        = "message"
	AssertAbsent         = "absent"
	AssertRejectionCount = "rejection_count"
)

// Record kinds for absent assertions.
const (
	RecordProfile = "profile"
	RecordPost    = "post"
	RecordMessage = "message"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step TxStep) error {
	if len(step.Signers) == 0 {
		return fmt.Errorf("signers is required")
	}
	if len(step.Instructions) == 0 {
		return fmt.Errorf("instructions is required")
	}
	for j, op := range step.Instructions {
		if _, ok := builders[op.Op]; !ok {
			return fmt.Errorf("instructions[%d]: unknown op %q", j, op.Op)
		}
	}
	if step.Advance < 0 {
		return fmt.Errorf("advance must be non-negative")
	}
	if e := step.Expect; e != nil {
		switch e.Status {
		case StatusCommitted:
			if e.Code != "" || e.Index != nil {
				return fmt.Errorf("expect: code and index only apply to rejected")
			}
		case StatusRejected:
		default:
			return fmt.Errorf("expect: status must be %q or %q", StatusCommitted, StatusRejected)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertProfile:
		if a.Owner == "" {
			return fmt.Errorf("assertions[%d]: owner is required for profile", index)
		}
	case AssertPost:
		if a.Author == "" || a.TS == nil {
			return fmt.Errorf("assertions[%d]: author and ts are required for post", index)
		}
	case AssertMessage:
		if a.Slot == "" {
			return fmt.Errorf("assertions[%d]: slot is required for message", index)
		}
	case AssertAbsent:
		switch a.Record {
		case RecordProfile:
			if a.Owner == "" {
				return fmt.Errorf("assertions[%d]: owner is required for absent profile", index)
			}
		case RecordPost:
			if a.Author == "" || a.TS == nil {
				return fmt.Errorf("assertions[%d]: author and ts are required for absent post", index)
			}
		case RecordMessage:
			if a.Slot == "" {
				return fmt.Errorf("assertions[%d]: slot is required for absent message", index)
			}
		default:
			return fmt.Errorf("assertions[%d]: record must be profile, post or message", index)
		}
	case AssertRejectionCount:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for rejection_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Type != AssertAbsent && a.Type != AssertRejectionCount && len(a.Expect) == 0 {
		return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
	}
	return nil
}

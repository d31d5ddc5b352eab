package ast

// InputType is the declared type of a ladder's input value.
type InputType string

const (
	InputTypeNumber InputType = "number"
	InputTypeString InputType = "string"
	InputTypeBool   InputType = "bool"
	InputTypeAny    InputType = "any"
)

// IsValid reports whether t is a known input type.
func (t InputType) IsValid() bool {
	switch t {
	case InputTypeNumber, InputTypeString, InputTypeBool, InputTypeAny:
		return true
	}
	return false
}

// Input describes the single named value a ladder is evaluated against.
type Input struct {
	Name string    // Display name, e.g. "grade" or "month"
	Type InputType // Declared type (default: any)
}

// Ladder is the root node of a ladder definition.
type Ladder struct {
	Name        string   // Unique ladder name (kebab-case)
	Version     string   // Optional version string
	Description string   // Human-readable description
	Tags        []string // Tags for categorization

	Input   Input      // Input declaration
	Rules   []*Rule    // Rules in evaluation order
	Default *ValueNode // Result when no rule matches
	Cases   []*Case    // Embedded example cases

	SourceFile string   // Path to the ladder file
	Location   Location // Source location
}

// EnabledRules returns the enabled rules in declaration order.
func (l *Ladder) EnabledRules() []*Rule {
	enabled := make([]*Rule, 0, len(l.Rules))
	for _, r := range l.Rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled
}

// Rule is one step of a ladder: when Condition holds, the ladder yields Result.
type Rule struct {
	Name        string         // Rule name, unique within the ladder
	Description string         // Human-readable description
	Enabled     bool           // Whether the rule participates (default: true)
	Condition   *ConditionNode // Predicate over the input
	Result      *ValueNode     // Value yielded on match
	Location    Location       // Source location
}

// Case is an example evaluation embedded in a ladder file, used by
// "ladder test" to check a ladder against expected results.
type Case struct {
	Name     string     // Optional case name
	Input    *ValueNode // Input value
	Expect   *ValueNode // Expected result
	Location Location   // Source location
}

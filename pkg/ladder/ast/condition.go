package ast

// ConditionType is the kind of a condition node.
type ConditionType string

const (
	ConditionTypeCompare ConditionType = "compare" // input op value
	ConditionTypeAll     ConditionType = "all"     // AND of children
	ConditionTypeAny     ConditionType = "any"     // OR of children
	ConditionTypeNot     ConditionType = "not"     // NOT of one child
)

// Operator is a comparison operator.
type Operator string

const (
	OperatorEqual        Operator = "=="
	OperatorNotEqual     Operator = "!="
	OperatorLessThan     Operator = "<"
	OperatorGreaterThan  Operator = ">"
	OperatorLessEqual    Operator = "<="
	OperatorGreaterEqual Operator = ">="
	OperatorIn           Operator = "in"
	OperatorNotIn        Operator = "not_in"
	OperatorBetween      Operator = "between" // Inclusive [lo, hi]
	OperatorContains     Operator = "contains"
	OperatorMatches      Operator = "matches" // Regex match
)

// Operators lists every supported operator.
var Operators = []Operator{
	OperatorEqual, OperatorNotEqual,
	OperatorLessThan, OperatorGreaterThan, OperatorLessEqual, OperatorGreaterEqual,
	OperatorIn, OperatorNotIn, OperatorBetween,
	OperatorContains, OperatorMatches,
}

// IsValid reports whether op is a supported operator.
func (op Operator) IsValid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// IsOrdering reports whether op compares numbers by order.
func (op Operator) IsOrdering() bool {
	switch op {
	case OperatorLessThan, OperatorGreaterThan, OperatorLessEqual, OperatorGreaterEqual, OperatorBetween:
		return true
	}
	return false
}

// ConditionNode is a predicate over the ladder input.
type ConditionNode struct {
	Type     ConditionType    // Kind of condition
	Operator Operator         // Comparison operator (Compare only)
	Value    *ValueNode       // Comparison operand (Compare only)
	Children []*ConditionNode // Child conditions (All/Any/Not)
	Location Location         // Source location
}

// IsLogical returns true for all/any/not nodes.
func (c *ConditionNode) IsLogical() bool {
	return c.Type == ConditionTypeAll || c.Type == ConditionTypeAny || c.Type == ConditionTypeNot
}

// Depth returns the nesting depth of the condition tree (a compare is 1).
func (c *ConditionNode) Depth() int {
	if c == nil {
		return 0
	}
	max := 0
	for _, child := range c.Children {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

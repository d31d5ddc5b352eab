package ast

import "fmt"

// ValueType is the type of a literal value.
type ValueType string

const (
	ValueTypeString  ValueType = "string"
	ValueTypeNumber  ValueType = "number"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeList    ValueType = "list"
	ValueTypeObject  ValueType = "object"
	ValueTypeNull    ValueType = "null"
)

// ValueNode is a literal value in a ladder file. Numbers are always
// float64; lists are []interface{} of normalized values.
type ValueNode struct {
	Type     ValueType   // Type of the value
	Value    interface{} // Normalized Go value
	Location Location    // Source location
}

// String returns a human-readable representation of the value.
func (v *ValueNode) String() string {
	if v == nil || v.Type == ValueTypeNull {
		return "null"
	}
	return fmt.Sprint(v.Value)
}

// List returns the elements of a list value, or nil and false.
func (v *ValueNode) List() ([]interface{}, bool) {
	if v == nil || v.Type != ValueTypeList {
		return nil, false
	}
	items, ok := v.Value.([]interface{})
	return items, ok
}

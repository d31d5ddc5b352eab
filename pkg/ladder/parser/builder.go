package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"mercator-hq/ladder/pkg/ladder/ast"
)

// builder constructs AST nodes from the intermediate YAML structures,
// accumulating errors rather than stopping at the first one.
type builder struct {
	sourcePath string
	maxDepth   int
	errors     *ErrorList
}

func newBuilder(sourcePath string, maxDepth int) *builder {
	return &builder{
		sourcePath: sourcePath,
		maxDepth:   maxDepth,
		errors:     NewErrorList(),
	}
}

func (b *builder) location(n *yaml.Node) ast.Location {
	if n == nil {
		return ast.Location{File: b.sourcePath, Line: 1, Column: 1}
	}
	return ast.Location{File: b.sourcePath, Line: n.Line, Column: n.Column}
}

// buildLadder transforms a yamlLadder into an ast.Ladder.
func (b *builder) buildLadder(yl *yamlLadder) (*ast.Ladder, error) {
	root := ast.Location{File: b.sourcePath, Line: 1, Column: 1}

	ladder := &ast.Ladder{
		Name:        yl.Name,
		Version:     yl.Version,
		Description: yl.Description,
		Tags:        yl.Tags,
		Input: ast.Input{
			Name: yl.Input.Name,
			Type: ast.InputType(yl.Input.Type),
		},
		Rules:      make([]*ast.Rule, 0, len(yl.Rules)),
		SourceFile: b.sourcePath,
		Location:   root,
	}

	if ladder.Name == "" {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural, "ladder name is required", root,
			"add a top-level 'name:' such as 'name: high-school-grades'")
	}
	if ladder.Input.Name == "" {
		ladder.Input.Name = "input"
	}
	if ladder.Input.Type == "" {
		ladder.Input.Type = ast.InputTypeAny
	}
	if !ladder.Input.Type.IsValid() {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural,
			fmt.Sprintf("unknown input type %q", yl.Input.Type), root,
			"use one of: number, string, bool, any")
	}

	if len(yl.Rules) == 0 {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural, "ladder must contain at least one rule", root,
			"add a 'rules:' list with at least one 'when'/'then' entry")
	}

	seen := make(map[string]ast.Location)
	for i := range yl.Rules {
		rule := b.buildRule(&yl.Rules[i], i)
		if rule == nil {
			continue
		}
		if prev, dup := seen[rule.Name]; dup {
			b.errors.AddError(ErrorTypeStructural,
				fmt.Sprintf("duplicate rule name %q (first defined at %s)", rule.Name, prev), rule.Location)
			continue
		}
		seen[rule.Name] = rule.Location
		ladder.Rules = append(ladder.Rules, rule)
	}

	if !present(&yl.Default) {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural, "ladder must declare a default result", root,
			"add a top-level 'default:' used when no rule matches")
	} else if def, err := b.buildValue(&yl.Default); err != nil {
		b.errors.AddError(ErrorTypeStructural, fmt.Sprintf("invalid default: %v", err), b.location(&yl.Default))
	} else {
		ladder.Default = def
	}

	for i := range yl.Cases {
		if c := b.buildCase(&yl.Cases[i], i); c != nil {
			ladder.Cases = append(ladder.Cases, c)
		}
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return ladder, nil
}

// buildRule transforms one rule node. It returns nil after recording an
// error.
func (b *builder) buildRule(n *yaml.Node, index int) *ast.Rule {
	loc := b.location(n)

	var yr yamlRule
	if err := n.Decode(&yr); err != nil {
		b.errors.AddError(ErrorTypeStructural, fmt.Sprintf("invalid rule at index %d: %v", index, err), loc)
		return nil
	}

	rule := &ast.Rule{
		Name:        yr.Name,
		Description: yr.Description,
		Enabled:     true,
		Location:    loc,
	}
	if rule.Name == "" {
		rule.Name = fmt.Sprintf("rule-%d", index+1)
	}
	if yr.Enabled != nil {
		rule.Enabled = *yr.Enabled
	}

	ok := true
	if !present(&yr.When) {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural,
			fmt.Sprintf("rule %q has no 'when' condition", rule.Name), loc,
			"add 'when: { op: \"==\", value: ... }'")
		ok = false
	} else {
		cond, err := b.buildCondition(&yr.When, 1)
		if err != nil {
			b.errors.AddError(ErrorTypeStructural,
				fmt.Sprintf("rule %q: invalid condition: %v", rule.Name, err), b.location(&yr.When))
			ok = false
		}
		rule.Condition = cond
	}

	if !present(&yr.Then) {
		b.errors.AddErrorWithSuggestion(ErrorTypeStructural,
			fmt.Sprintf("rule %q has no 'then' result", rule.Name), loc,
			"add 'then:' with the value returned when the rule matches")
		ok = false
	} else {
		result, err := b.buildValue(&yr.Then)
		if err != nil {
			b.errors.AddError(ErrorTypeStructural,
				fmt.Sprintf("rule %q: invalid result: %v", rule.Name, err), b.location(&yr.Then))
			ok = false
		}
		rule.Result = result
	}

	if !ok {
		return nil
	}
	return rule
}

// buildCondition transforms a condition node. See the package
// documentation for the accepted forms.
func (b *builder) buildCondition(n *yaml.Node, depth int) (*ast.ConditionNode, error) {
	if depth > b.maxDepth {
		return nil, fmt.Errorf("condition nesting exceeds maximum depth %d", b.maxDepth)
	}

	n = resolve(n)
	loc := b.location(n)

	switch n.Kind {
	case yaml.ScalarNode:
		value, err := b.buildValue(n)
		if err != nil {
			return nil, err
		}
		return &ast.ConditionNode{
			Type:     ast.ConditionTypeCompare,
			Operator: ast.OperatorEqual,
			Value:    value,
			Location: loc,
		}, nil

	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return nil, fmt.Errorf("empty condition list")
		}
		if len(n.Content) == 1 {
			return b.buildCondition(n.Content[0], depth)
		}
		return b.buildLogical(ast.ConditionTypeAll, n, depth)

	case yaml.MappingNode:
		keys := mappingKeys(n)
		if children, ok := keys["all"]; ok {
			return b.buildLogical(ast.ConditionTypeAll, children, depth)
		}
		if children, ok := keys["any"]; ok {
			return b.buildLogical(ast.ConditionTypeAny, children, depth)
		}
		if child, ok := keys["not"]; ok {
			inner, err := b.buildCondition(child, depth+1)
			if err != nil {
				return nil, err
			}
			return &ast.ConditionNode{
				Type:     ast.ConditionTypeNot,
				Children: []*ast.ConditionNode{inner},
				Location: loc,
			}, nil
		}
		return b.buildCompare(keys, loc)

	default:
		return nil, fmt.Errorf("unsupported condition node")
	}
}

func (b *builder) buildLogical(condType ast.ConditionType, n *yaml.Node, depth int) (*ast.ConditionNode, error) {
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%q must hold a list of conditions", condType)
	}
	if len(n.Content) == 0 {
		return nil, fmt.Errorf("%q must hold at least one condition", condType)
	}

	children := make([]*ast.ConditionNode, 0, len(n.Content))
	for i, child := range n.Content {
		node, err := b.buildCondition(child, depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", condType, i, err)
		}
		children = append(children, node)
	}

	return &ast.ConditionNode{
		Type:     condType,
		Children: children,
		Location: b.location(n),
	}, nil
}

func (b *builder) buildCompare(keys map[string]*yaml.Node, loc ast.Location) (*ast.ConditionNode, error) {
	opNode, ok := keys["op"]
	if !ok {
		return nil, fmt.Errorf("missing 'op' (or 'all', 'any', 'not')")
	}
	op := ast.Operator(opNode.Value)
	if !op.IsValid() {
		return nil, fmt.Errorf("unknown operator %q", opNode.Value)
	}

	valueNode, ok := keys["value"]
	if !ok {
		return nil, fmt.Errorf("operator %q requires a 'value'", op)
	}
	value, err := b.buildValue(valueNode)
	if err != nil {
		return nil, err
	}

	return &ast.ConditionNode{
		Type:     ast.ConditionTypeCompare,
		Operator: op,
		Value:    value,
		Location: loc,
	}, nil
}

func (b *builder) buildCase(n *yaml.Node, index int) *ast.Case {
	loc := b.location(n)

	var yc yamlCase
	if err := n.Decode(&yc); err != nil {
		b.errors.AddError(ErrorTypeStructural, fmt.Sprintf("invalid case at index %d: %v", index, err), loc)
		return nil
	}
	if !present(&yc.Input) || !present(&yc.Expect) {
		b.errors.AddError(ErrorTypeStructural,
			fmt.Sprintf("case at index %d needs both 'input' and 'expect'", index), loc)
		return nil
	}

	input, err := b.buildValue(&yc.Input)
	if err != nil {
		b.errors.AddError(ErrorTypeStructural, fmt.Sprintf("case %d: invalid input: %v", index, err), loc)
		return nil
	}
	expect, err := b.buildValue(&yc.Expect)
	if err != nil {
		b.errors.AddError(ErrorTypeStructural, fmt.Sprintf("case %d: invalid expect: %v", index, err), loc)
		return nil
	}

	name := yc.Name
	if name == "" {
		name = fmt.Sprintf("case-%d", index+1)
	}
	return &ast.Case{Name: name, Input: input, Expect: expect, Location: loc}
}

// buildValue decodes and normalizes a literal value node.
func (b *builder) buildValue(n *yaml.Node) (*ast.ValueNode, error) {
	var raw interface{}
	if err := n.Decode(&raw); err != nil {
		return nil, err
	}
	value, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	vn := &ast.ValueNode{Value: value, Location: b.location(resolve(n))}
	switch value.(type) {
	case nil:
		vn.Type = ast.ValueTypeNull
	case string:
		vn.Type = ast.ValueTypeString
	case float64:
		vn.Type = ast.ValueTypeNumber
	case bool:
		vn.Type = ast.ValueTypeBoolean
	case []interface{}:
		vn.Type = ast.ValueTypeList
	case map[string]interface{}:
		vn.Type = ast.ValueTypeObject
	}
	return vn, nil
}

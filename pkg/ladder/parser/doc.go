// Package parser reads ladder definitions from YAML into the ast package's
// syntax tree.
//
// # File Format
//
//	name: seasons
//	description: Map a month number to its season.
//	input:
//	  name: month
//	  type: number
//	rules:
//	  - name: winter
//	    when: { op: in, value: [1, 2, 3] }
//	    then: Winter
//	  - name: spring
//	    when: { op: between, value: [4, 6] }
//	    then: Spring
//	default: Invalid
//	cases:
//	  - { input: 5, expect: Spring }
//
// A condition is one of:
//
//   - a scalar, shorthand for equality ("when: 9")
//   - {op: <operator>, value: <operand>}
//   - {all: [...]}, {any: [...]}, {not: <condition>}
//   - a list of conditions, an implicit all
//
// Every error carries the file, line, and column of the offending node.
// A ladder without rules or without a default is rejected; such errors
// match rules.ErrConfiguration under errors.Is.
package parser

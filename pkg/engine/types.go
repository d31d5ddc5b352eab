package engine

import (
	"time"

	"mercator-hq/ladder/pkg/ladder/ast"
)

// Outcome classifies a single evaluation for metrics and records.
type Outcome string

const (
	// OutcomeMatched means a rule matched and supplied the result.
	OutcomeMatched Outcome = "matched"

	// OutcomeDefault means no rule matched and the ladder default was returned.
	OutcomeDefault Outcome = "default"

	// OutcomeError means evaluation failed (unknown ladder, type mismatch).
	OutcomeError Outcome = "error"
)

// Decision is the result of evaluating one input against one ladder.
type Decision struct {
	// ID uniquely identifies this evaluation.
	ID string `json:"id"`

	// Ladder is the name of the evaluated ladder.
	Ladder string `json:"ladder"`

	// Input is the value the ladder was evaluated against.
	Input interface{} `json:"input"`

	// Result is the matched rule's result, or the ladder default.
	Result interface{} `json:"result"`

	// RuleIndex is the position of the matched rule among enabled rules,
	// or -1 when the default was returned.
	RuleIndex int `json:"rule_index"`

	// RuleName is the name of the matched rule (empty for the default).
	RuleName string `json:"rule_name,omitempty"`

	// Defaulted reports whether no rule matched.
	Defaulted bool `json:"defaulted"`

	// Duration is the time spent evaluating rules.
	Duration time.Duration `json:"duration_ns"`

	// Timestamp is when the evaluation started.
	Timestamp time.Time `json:"timestamp"`
}

// Outcome returns the decision's outcome class.
func (d *Decision) Outcome() Outcome {
	if d.Defaulted {
		return OutcomeDefault
	}
	return OutcomeMatched
}

// LadderInfo describes a loaded ladder for introspection.
type LadderInfo struct {
	Name        string        `json:"name"`
	Version     string        `json:"version,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	InputName   string        `json:"input_name"`
	InputType   ast.InputType `json:"input_type"`
	Rules       []string      `json:"rules"`
	Default     interface{}   `json:"default"`
	Cases       int           `json:"cases"`
	SourceFile  string        `json:"source_file,omitempty"`
}

// CaseResult is the outcome of running one embedded example case.
type CaseResult struct {
	Name     string
	Input    interface{}
	Expected interface{}
	Actual   interface{}
	Passed   bool
	Err      error
	Location ast.Location
}

// LadderEvent represents a ladder source change.
type LadderEvent struct {
	// Type is the event type ("created", "modified", "deleted").
	Type LadderEventType

	// Path is the file path that changed (empty for in-memory sources).
	Path string

	// Error is any error that occurred while watching.
	Error error
}

// LadderEventType represents the type of ladder source event.
type LadderEventType string

const (
	LadderEventCreated  LadderEventType = "created"
	LadderEventModified LadderEventType = "modified"
	LadderEventDeleted  LadderEventType = "deleted"
)

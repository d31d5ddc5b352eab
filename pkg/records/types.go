package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mercator-hq/ladder/pkg/engine"
)

// Record is the persisted form of one evaluation.
type Record struct {
	// ID is the decision ID.
	ID string `json:"id"`

	// Ladder is the evaluated ladder name.
	Ladder string `json:"ladder"`

	// Input and Result hold JSON encodings of the evaluated values.
	Input  string `json:"input"`
	Result string `json:"result"`

	// RuleIndex is the matched rule position, or -1 for the default.
	RuleIndex int    `json:"rule_index"`
	RuleName  string `json:"rule_name,omitempty"`
	Defaulted bool   `json:"defaulted"`

	// Duration is the rule evaluation time.
	Duration time.Duration `json:"duration_ns"`

	// EvaluatedAt is when the evaluation started.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// RecordedAt is when the record was handed to storage.
	RecordedAt time.Time `json:"recorded_at"`
}

// NewRecord converts an engine decision into a record. Values that cannot
// be encoded as JSON are stored as their fmt representation.
func NewRecord(d *engine.Decision) *Record {
	return &Record{
		ID:          d.ID,
		Ladder:      d.Ladder,
		Input:       encodeValue(d.Input),
		Result:      encodeValue(d.Result),
		RuleIndex:   d.RuleIndex,
		RuleName:    d.RuleName,
		Defaulted:   d.Defaulted,
		Duration:    d.Duration,
		EvaluatedAt: d.Timestamp,
		RecordedAt:  time.Now(),
	}
}

func encodeValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return string(data)
}

// Query filters records. Zero values mean "no filter".
type Query struct {
	// Ladder matches records of one ladder.
	Ladder string

	// RuleName matches records produced by one rule.
	RuleName string

	// Defaulted, when set, matches records by whether the default was used.
	Defaulted *bool

	// Since and Until bound EvaluatedAt (both inclusive).
	Since *time.Time
	Until *time.Time

	// Limit caps the result size (default: 100). Offset skips records.
	Limit  int
	Offset int

	// Oldest returns records oldest first instead of newest first.
	Oldest bool
}

// DefaultQueryLimit is used when Query.Limit is zero.
const DefaultQueryLimit = 100

// Store persists records.
type Store interface {
	// Store persists a single record.
	Store(ctx context.Context, record *Record) error

	// Query returns records matching the filter.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the filter.
	// Limit and Offset are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the filter and returns how many
	// were removed. Limit and Offset are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the store.
	Close() error
}

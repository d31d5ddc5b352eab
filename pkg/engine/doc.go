// Package engine compiles parsed ladders into rule sets and evaluates
// inputs against them.
//
// A ladder is an ordered list of rules with a mandatory default. The
// first rule whose condition holds supplies the result; when none holds
// the default does. Evaluation is pure, so the engine serves concurrent
// callers under a read lock and only takes the write lock to swap in a
// freshly compiled set on reload.
//
// # Evaluation Flow
//
//	input
//	  ↓
//	check against declared input type
//	  ↓
//	for each enabled rule in file order:
//	    condition holds? → yes: result, stop
//	  ↓
//	default
//	  ↓
//	Decision (result, matched rule, timing) → metrics, records
//
// # Basic Usage
//
//	src := source.NewFileSource("ladders/", logger)
//	eng, err := engine.NewEngine(engine.DefaultEngineConfig(), src, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	decision, err := eng.Evaluate(ctx, "high-school-grades", 10.0)
//	// decision.Result == "Sophomore"
//
// # Errors
//
// Operators never coerce across kinds. Comparing a string input with a
// numeric bound yields an *EvaluationError wrapping
// *rules.MismatchedTypeError, detectable with errors.Is(err,
// rules.ErrMismatchedType). Bad operands (an invalid regex, reversed
// between bounds) are rejected by Compile as configuration errors.
//
// # Hot Reload
//
// With EngineConfig.Watch set, the engine subscribes to its source and
// reloads on every change event. A failed reload is logged and the
// previous ladders remain active.
package engine

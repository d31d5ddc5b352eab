// Package health provides liveness, readiness and version endpoints.
//
// Components register readiness checks on a Checker:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("engine", func(ctx context.Context) error {
//	    if len(eng.Ladders()) == 0 {
//	        return errors.New("no ladders loaded")
//	    }
//	    return nil
//	})
//
// Liveness always answers 200. Readiness answers 503 when any check fails
// or exceeds its timeout.
package health

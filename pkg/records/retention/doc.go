// Package retention prunes old evaluation records.
//
// A Pruner deletes records in two phases: first everything evaluated
// before now minus RetentionDays, then the oldest records beyond
// MaxRecords. A Scheduler runs the pruner on a standard five-field cron
// expression:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 30,
//	    PruneSchedule: "0 3 * * *", // daily at 3 AM
//	}, logger)
//	if err := pruner.Scheduler().Start(ctx); err != nil {
//	    return err
//	}
package retention

package tasks

import "context"

// newCounterPruneTask creates the task that drops stale throttle
// buckets for idle accounts.
func newCounterPruneTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "counter_prune")

	return func(ctx context.Context) error {
		pruned := deps.Throttle.PruneStale()
		log.InfoContext(ctx, "Throttle counter prune completed", "pruned", pruned)
		return nil
	}
}

package tasks

import "context"

// newDedupSweepTask creates the task that evicts expired seen-keys
// from the dedup gate.
func newDedupSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "dedup_sweep")

	return func(ctx context.Context) error {
		removed := deps.Gate.Sweep()
		log.InfoContext(ctx, "Dedup sweep completed", "removed", removed, "remaining", deps.Gate.Len())
		return nil
	}
}

// Package tasks holds the scheduled background jobs and their registry.
package tasks

import "context"

// ScheduledTaskFunc is the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for
// cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks initializes and returns the map of all scheduled
// tasks. The keys match the task names in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["dedup_sweep"] = newDedupSweepTask(deps)
	tasks["counter_prune"] = newCounterPruneTask(deps)
	tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

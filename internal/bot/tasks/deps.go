package tasks

import (
	"log/slog"

	"github.com/ostapv/leadwatch/internal/database"
	"github.com/ostapv/leadwatch/internal/dedup"
	"github.com/ostapv/leadwatch/internal/throttle"
)

// TaskDeps bundles the shared dependencies injected into scheduled
// task factories. Archive may be nil when the SQLite archive is
// disabled; tasks that need it must check.
type TaskDeps struct {
	Logger   *slog.Logger
	Gate     *dedup.Gate
	Throttle *throttle.Throttle
	Archive  database.Archive
}

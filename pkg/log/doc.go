/*
Package log provides structured logging for vexdb using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│  Global Logger (zerolog.Logger), set once via log.Init()  │
	│                     │                                      │
	│  Configuration: Level, JSONOutput, Output io.Writer        │
	│                     │                                      │
	│  Component loggers: WithComponent("catalog"), ("column"),  │
	│  ("exec"), ("knn"), ("storage") — each tags every record    │
	│  with a "component" field so multi-subsystem logs can be    │
	│  filtered per concern.                                       │
	└────────────────────────────────────────────────────────┘

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})

	catalogLog := log.WithComponent("catalog")
	catalogLog.Info().Str("schema", name).Msg("schema created")

	execLog := log.WithComponent("exec")
	execLog.Error().Err(err).Str("task_id", id).Msg("task failed")

# Integration Points

pkg/catalog (schema created/dropped), pkg/column (a failed rollback on
close), pkg/exec (plan cancellation), pkg/reconciler and pkg/rpc log
through this package rather than fmt.Print or a local logger. pkg/storage
and pkg/knn do not log.
*/
package log

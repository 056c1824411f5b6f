/*
Package log provides structured logging for sandboxd using zerolog.

It wraps zerolog with a package-level global Logger, configurable level
and JSON/console output, and small helpers for attaching box/session
context to a line without repeating field names everywhere.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog.Logger, initialized via Init()   │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("boxmgr")                  │          │
	│  │  - WithBoxID("box-1a2b3c")                  │          │
	│  │  - WithSessionID("sess-1a2b3c")              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger, initialized once via log.Init()

Log Levels: Debug, Info, Warn, Error, Fatal (Fatal calls os.Exit(1))

Configuration:
  - Level: filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination

Context Loggers:
  - WithComponent: tag all lines from a logger with a component name
  - WithBoxID: tag all lines with the box they concern
  - WithSessionID: tag all lines with the session they concern

# Usage

	import "github.com/boxrun/sandboxd/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	log.Info("sandboxd starting")

	log.Logger.Error().
		Err(err).
		Str("box_id", boxID).
		Msg("exec failed")

	boxLog := log.WithBoxID(boxID)
	boxLog.Info().Msg("box started")

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once at startup,
    accessible from every package without passing it down the call stack.

Context Logger Pattern:
  - Derive a child logger carrying box_id/session_id/component so call
    sites don't repeat those fields on every line.

Structured Logging Pattern:
  - Typed fields (.Str, .Int, .Err) instead of string interpolation, so
    logs stay machine-parseable.

# Log Rotation

sandboxd writes its logs (console format, or JSON with --log-json) to
stdout and leaves rotation to the deployment
environment (logrotate, systemd-journald, or the container runtime's
log driver), the same as most services that log to stdout.

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log

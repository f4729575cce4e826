// Package engine keeps the external indexing engine (Everything) healthy
// and answering IPC queries from its query CLI (es.exe). It is structured
// into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: State, InstanceInfo, OwnedInstance, Snapshot.
//   - errors.go: error types and helpers (IsEngineNotFound, IsAutostartBlocked, ...).
//   - paths.go: executable resolution and UpdatePaths.
//   - command.go: CLICommand, the typed query CLI argument builder.
//   - runner.go: Runner, the seam for running external programs.
//   - discovery.go: process table and command line discovery.
//   - probe.go: IPC readiness probing and waiting.
//   - lifecycle.go: EnsureRunning and engine starts.
//   - shutdown.go: stopping owned, conflicting and own instances.
//   - ownership.go: ownership record and its optional persistence.
//   - autostart.go: temporary autostart suppression.
//   - status_report.go, sanity.go: read-only reporting.
//
// The engine has no readiness signal of its own; readiness is inferred from
// a one-result query succeeding. Processes are only ever asked to exit
// through the CLI, never killed, and only instances recorded as owned are
// stopped on shutdown.
package engine

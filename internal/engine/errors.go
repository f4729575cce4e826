package engine

// cliNotFoundError signals that the query CLI is missing so callers can
// report "search unavailable" instead of a generic failure.
type cliNotFoundError struct{ path string }

func (e cliNotFoundError) Error() string { return "query CLI not found: " + e.path }

func ErrCLINotFound(path string) error { return cliNotFoundError{path: path} }

// IsCLINotFound reports whether err indicates a missing query CLI.
func IsCLINotFound(err error) bool {
	_, ok := err.(cliNotFoundError)
	return ok
}

type engineNotFoundError struct{ path string }

func (e engineNotFoundError) Error() string {
	if e.path == "" {
		return "engine executable not found"
	}
	return "engine executable not found: " + e.path
}

// ErrEngineNotFound constructs an engineNotFoundError.
func ErrEngineNotFound(path string) error { return engineNotFoundError{path: path} }

// IsEngineNotFound reports whether err indicates a missing engine executable.
func IsEngineNotFound(err error) bool {
	_, ok := err.(engineNotFoundError)
	return ok
}

// autostartBlockedError carries the reason the host suppressed autostart.
type autostartBlockedError struct{ reason string }

func (e autostartBlockedError) Error() string {
	if e.reason == "" {
		return "engine autostart is temporarily blocked"
	}
	return "engine autostart is temporarily blocked: " + e.reason
}

func ErrAutostartBlocked(reason string) error { return autostartBlockedError{reason: reason} }

// IsAutostartBlocked reports whether err was caused by an active autostart block.
func IsAutostartBlocked(err error) bool {
	_, ok := err.(autostartBlockedError)
	return ok
}

// notReadyError means the engine did not answer IPC queries in time.
type notReadyError struct{ reason string }

func (e notReadyError) Error() string {
	if e.reason == "" {
		return "engine not ready"
	}
	return "engine not ready: " + e.reason
}

func ErrNotReady(reason string) error { return notReadyError{reason: reason} }

// IsNotReady reports whether err indicates a readiness timeout.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

// stopFailedError means a running engine could not be asked to exit.
type stopFailedError struct{ reason string }

func (e stopFailedError) Error() string { return "could not stop running engine: " + e.reason }

func ErrStopFailed(reason string) error { return stopFailedError{reason: reason} }

func IsStopFailed(err error) bool {
	_, ok := err.(stopFailedError)
	return ok
}

package client

import "errors"

var (
	// ErrDaemonNotRunning means nothing is listening on the socket.
	ErrDaemonNotRunning = errors.New("phmeter daemon not running")

	// ErrPermissionDenied means the socket exists but the caller may not open it.
	// The daemon only opens it to non-root users when allowNonRootAccess is set.
	ErrPermissionDenied = errors.New("permission denied on daemon socket")

	// ErrNotFound is wrapped when the daemon answers 404, e.g. GET /result
	// before anything has been measured.
	ErrNotFound = errors.New("not found")
)

// backend selection and platform documentation.
//
// Each platform implements the backend interface (see backend.go):
//   - Linux: epoll (poller_linux.go)
//   - Darwin/BSD: kqueue (poller_darwin.go)
//   - Windows: I/O Completion Ports (poller_windows.go)
//
// Queue.Run drives whichever backend it was constructed with; Handle
// kinds are otherwise backend-agnostic.
package evqueue

// newPlatformBackend constructs the backend for the current GOOS when mask
// names its engine, and returns ErrNoBackend otherwise. Each poller_<os>.go
// defines it for exactly one engine.

//go:build windows

package evqueue

// createWakeFd is a stub on Windows: Thread handles wake the Queue via
// iocpBackend.wakeup (PostQueuedCompletionStatus) instead of an fd-based
// primitive, since IOCP has no concept of a pollable descriptor for this.
func createWakeFd() (readFd, writeFd int, err error) {
	return -1, -1, nil
}

func closeWakeFd(readFd, writeFd int) error { return nil }

func signalWakeFd(writeFd int) error { return nil }

func drainWakeFd(readFd int) error { return nil }

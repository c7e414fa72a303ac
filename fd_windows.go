//go:build windows

package evqueue

// closeFD/readFD/writeFD are no-ops on Windows: pollable Handles there
// wrap a windows.Handle registered directly with IOCP, and Thread handles
// have no backing fd at all (see wakeup_windows.go).
func closeFD(fd int) error { return nil }

func readFD(fd int, buf []byte) (int, error) { return 0, nil }

func writeFD(fd int, buf []byte) (int, error) { return 0, nil }

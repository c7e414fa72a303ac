//go:build darwin

package evqueue

import "syscall"

// createWakeFd creates a self-pipe backing a Thread handle's
// cross-goroutine notification primitive (Darwin/BSD; kqueue has no
// eventfd equivalent).
func createWakeFd() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	syscall.CloseOnExec(fds[0])
	syscall.CloseOnExec(fds[1])
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		return -1, -1, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		syscall.Close(fds[0])
		syscall.Close(fds[1])
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

// closeWakeFd closes both pipe ends.
func closeWakeFd(readFd, writeFd int) error {
	if readFd >= 0 {
		_ = syscall.Close(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = syscall.Close(writeFd)
	}
	return nil
}

// signalWakeFd writes a single byte to the pipe's write end.
func signalWakeFd(writeFd int) error {
	var b [1]byte
	_, err := syscall.Write(writeFd, b[:])
	if err == syscall.EAGAIN {
		return nil
	}
	return err
}

// drainWakeFd reads and discards pending bytes from the pipe's read end.
func drainWakeFd(readFd int) error {
	var buf [64]byte
	for {
		n, err := syscall.Read(readFd, buf[:])
		if n <= 0 || err != nil {
			if err == syscall.EAGAIN {
				return nil
			}
			return err
		}
	}
}

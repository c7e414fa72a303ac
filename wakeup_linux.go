//go:build linux

package evqueue

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates an eventfd backing a Thread handle's cross-goroutine
// notification primitive (Linux). Returns the same fd as both read and
// write end, since eventfd is bidirectional.
func createWakeFd() (readFd, writeFd int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}

// closeWakeFd closes the eventfd.
func closeWakeFd(readFd, writeFd int) error {
	if readFd >= 0 {
		return unix.Close(readFd)
	}
	return nil
}

// signalWakeFd increments the eventfd counter by one, waking any goroutine
// blocked on the backend's poll registration for readFd.
func signalWakeFd(writeFd int) error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(writeFd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// drainWakeFd discards the eventfd's accumulated counter value.
func drainWakeFd(readFd int) error {
	var buf [8]byte
	_, err := unix.Read(readFd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

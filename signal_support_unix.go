//go:build linux || darwin

package evqueue

const signalHandlesSupported = true
